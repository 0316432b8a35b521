package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"emojiharvest/pkg/collector"
)

// Writer encodes the result onto a stream such as stdout
type Writer struct {
	W      io.Writer
	Format Format
	mu     sync.Mutex
}

// NewWriter returns a sink writing to w
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{W: w, Format: format}
}

func (w *Writer) String() string {
	return "stream"
}

func (w *Writer) Emit(ctx context.Context, result collector.ResultSet) error {
	data, err := Encode(result, w.Format)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.W.Write(data); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
