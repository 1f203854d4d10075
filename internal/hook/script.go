package hook

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verte-zerg/kero/internal/model"
)

// Script replays key events from text, one per line:
//
//	down LShift
//	down A
//	up A
//	up LShift
//
// Blank lines and lines starting with '#' are skipped.
type Script struct {
	r     io.Reader
	clock func() time.Time
}

// NewScript returns a source reading events from r.
func NewScript(r io.Reader) *Script {
	return &Script{r: r, clock: time.Now}
}

// ParseLine parses a single script line. ok is false for blank and comment lines.
func ParseLine(line string) (ev model.KeyEvent, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return model.KeyEvent{}, false, nil
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return model.KeyEvent{}, false, fmt.Errorf("expected \"down|up KEY\", got %q", line)
	}
	switch strings.ToLower(fields[0]) {
	case "down":
		ev.Transition = model.Down
	case "up":
		ev.Transition = model.Up
	default:
		return model.KeyEvent{}, false, fmt.Errorf("unknown transition %q", fields[0])
	}
	ev.Token = model.KeyToken(fields[1])
	return ev, true, nil
}

// Stream emits every event in the script, in order.
func (s *Script) Stream(ctx context.Context, emit func(model.KeyEvent) error) error {
	scanner := bufio.NewScanner(s.r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		ev.Time = s.clock()
		if err := emit(ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return nil
}
