package progress_test

import (
	"bytes"
	"testing"

	"github.com/pyproject-tools/pybuild/internal/progress"
)

func TestNilBar(t *testing.T) {
	var bar *progress.Bar
	bar.Add(1)
	bar.Finish()
}

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.New(&buf, 2, "scanning")
	bar.Add(1)
	bar.Add(1)
	bar.Finish()

	if buf.Len() == 0 {
		t.Fatal("expected progress output")
	}
}
