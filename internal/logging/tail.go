package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hpcloud/tail"
)

// Print copies the log file to w. With follow it keeps writing new lines
// until ctx is done.
func Print(ctx context.Context, path string, w io.Writer, follow bool) error {
	if !follow {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				// Best-effort close for read-only log.
				_ = cerr
			}
		}()
		if _, err := io.Copy(w, file); err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}
		return nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow log file: %w", err)
	}
	defer t.Cleanup()
	defer func() {
		// The tail goroutine blocks on unread lines; drain them so Stop returns.
		go func() {
			for range t.Lines {
			}
		}()
		if serr := t.Stop(); serr != nil {
			// Best-effort stop of the tail goroutine.
			_ = serr
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return fmt.Errorf("failed to follow log file: %w", line.Err)
			}
			if _, err := fmt.Fprintln(w, line.Text); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
}
