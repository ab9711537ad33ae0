package main

import (
	"os"

	"github.com/solatis/schemamend/cmd/schemamend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
