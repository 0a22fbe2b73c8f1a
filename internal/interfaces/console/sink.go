package console

import (
	"fmt"
	"io"
	"os"

	"spreadscope/internal/application/port"
)

type Sink struct {
	w io.Writer
}

// NewSink writes lines to w, or to stdout when w is nil.
func NewSink(w io.Writer) port.Sink {
	if w == nil {
		w = os.Stdout
	}
	return &Sink{w: w}
}

func (s *Sink) WriteLine(line string) error {
	_, err := fmt.Fprintln(s.w, line)
	return err
}

func (s *Sink) NewLine() error {
	_, err := fmt.Fprint(s.w, "\n")
	return err
}
