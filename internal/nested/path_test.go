package nested

import (
	"errors"
	"testing"

	"github.com/solatis/schemamend/internal/types"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Path
		wantErr error
	}{
		{name: "empty path", in: "", want: Path{}},
		{name: "single segment", in: "a", want: Path{"a"}},
		{name: "nested", in: "a.b.c", want: Path{"a", "b", "c"}},
		{name: "leading dot", in: ".a", wantErr: types.ErrEmptyPathSegment},
		{name: "trailing dot", in: "a.", wantErr: types.ErrEmptyPathSegment},
		{name: "doubled dot", in: "a..b", wantErr: types.ErrEmptyPathSegment},
		{name: "lone dot", in: ".", wantErr: types.ErrEmptyPathSegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath() unexpected error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParsePath() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParsePath()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPath_HeadTail(t *testing.T) {
	p := MustParsePath("a.b.c")
	if p.Head() != "a" {
		t.Errorf("Head() = %q, want a", p.Head())
	}
	if p.Tail().String() != "b.c" {
		t.Errorf("Tail() = %q, want b.c", p.Tail().String())
	}
	if (Path{}).Head() != "" || len((Path{}).Tail()) != 0 {
		t.Error("empty path Head/Tail should be empty")
	}
}

func TestMustParsePath_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParsePath() did not panic on malformed path")
		}
	}()
	MustParsePath("a..b")
}
