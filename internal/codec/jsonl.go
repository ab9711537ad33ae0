package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/solatis/schemamend/internal/types"
)

// Record is one line of a JSONL stream. Err is set when the line could not be
// decoded; the stream itself continues.
type Record struct {
	Line  int
	Value types.Value
	Err   error
}

// ReadJSONL decodes newline-delimited JSON records and hands each to fn.
// Blank lines are skipped. A line over MaxRecordSize is reported with
// ErrRecordTooLarge as soon as the limit is crossed, and the rest of it is
// discarded without being buffered. Returns the first I/O error or the first
// error from fn.
func ReadJSONL(r io.Reader, fn func(Record) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var buf []byte
	line := 0
	discarding := false
	for {
		chunk, err := br.ReadSlice('\n')
		switch {
		case discarding:
		case len(buf)+len(chunk) > types.MaxRecordSize+1:
			line++
			discarding, buf = true, buf[:0]
			if ferr := fn(Record{Line: line, Err: types.ErrRecordTooLarge}); ferr != nil {
				return ferr
			}
		default:
			buf = append(buf, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		// end of line or end of stream
		if discarding {
			discarding = false
		} else if len(buf) > 0 {
			line++
			if rec, ok := decodeLine(line, buf); ok {
				if ferr := fn(rec); ferr != nil {
					return ferr
				}
			}
			buf = buf[:0]
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", line+1, err)
		}
	}
}

func decodeLine(line int, raw []byte) (Record, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Record{}, false
	}
	if len(trimmed) > types.MaxRecordSize {
		return Record{Line: line, Err: types.ErrRecordTooLarge}, true
	}
	v, err := DecodeJSON(trimmed)
	return Record{Line: line, Value: v, Err: err}, true
}

// WriteJSONL writes v as one JSON line.
func WriteJSONL(w io.Writer, v types.Value) error {
	b, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
