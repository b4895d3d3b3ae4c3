package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter tees every write to all of its writers.
// A failing writer does not stop the others; errors are combined.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{
		Writers: make([]io.Writer, 0, len(writers)),
	}
	for _, w := range writers {
		if w != nil {
			cw.Writers = append(cw.Writers, w)
		}
	}
	return cw
}

// Write reports len(p) as long as at least one writer accepted the whole buffer,
// so the log package does not treat a single broken sink as a short write.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		err      error
		anyWrote bool
	)
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written == len(p) {
			anyWrote = true
		}
	}
	if anyWrote {
		return len(p), err
	}
	return 0, err
}
