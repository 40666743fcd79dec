package xpost

import (
	"fmt"
	"os"

	"EhonBot/internal/ports"
)

// OutputSink appends rotated credentials to a key=value output file, the
// way CI workflows pick up step outputs. An empty path disables the sink.
type OutputSink struct {
	path string
}

var _ ports.TokenSink = (*OutputSink)(nil)

// NewOutputSink records the output file path.
func NewOutputSink(path string) *OutputSink {
	return &OutputSink{path: path}
}

// StoreRefreshToken appends the rotated token for the caller's next run.
func (s *OutputSink) StoreRefreshToken(token string) error {
	if s.path == "" || token == "" {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "new_refresh_token=%s\n", token); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
