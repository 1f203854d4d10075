// Package model defines shared data structures.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ComboSeparator joins the member tokens of a canonical combo string.
const ComboSeparator = "+"

// KeyToken identifies a single physical key, e.g. "A", "LShift" or "Escape".
type KeyToken string

// Transition is the direction of a key event.
type Transition int

const (
	// Down is a key press.
	Down Transition = iota
	// Up is a key release.
	Up
)

func (t Transition) String() string {
	switch t {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return fmt.Sprintf("transition(%d)", int(t))
	}
}

// KeyEvent is one notification delivered by a keyboard hook.
type KeyEvent struct {
	Token      KeyToken
	Transition Transition
	Time       time.Time
}

// ComboSnapshot is the canonical set of keys held together at a release.
// Build it with NewComboSnapshot; the zero value is an empty snapshot.
type ComboSnapshot struct {
	Keys    string
	Members []KeyToken
	Single  bool
}

// NewComboSnapshot deduplicates and sorts tokens and joins them into the
// canonical combo string. Press order never affects the result.
func NewComboSnapshot(tokens []KeyToken) ComboSnapshot {
	seen := make(map[KeyToken]struct{}, len(tokens))
	members := make([]KeyToken, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		members = append(members, tok)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = string(m)
	}
	return ComboSnapshot{
		Keys:    strings.Join(parts, ComboSeparator),
		Members: members,
		Single:  len(members) == 1,
	}
}

// Empty reports whether the snapshot has no members.
func (s ComboSnapshot) Empty() bool {
	return len(s.Members) == 0
}

// ComboRecord is a persisted combo counter.
type ComboRecord struct {
	Keys       string
	Single     bool
	PressTimes int64
}

// Kind returns "Single" or "Combo" for display.
func (r ComboRecord) Kind() string {
	if r.Single {
		return "Single"
	}
	return "Combo"
}

// Filter selects records by arity.
type Filter int

const (
	// FilterAll matches every record.
	FilterAll Filter = iota
	// FilterSingle matches single-key records.
	FilterSingle
	// FilterCombo matches records with two or more keys.
	FilterCombo
)

func (f Filter) String() string {
	switch f {
	case FilterSingle:
		return "single"
	case FilterCombo:
		return "combo"
	default:
		return "all"
	}
}

// ParseFilter parses "all", "single" or "combo".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "single":
		return FilterSingle, nil
	case "combo":
		return FilterCombo, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q (expected all, single or combo)", s)
	}
}

// RecorderConfig defines recorder settings resolved from flags, env and file.
type RecorderConfig struct {
	Terminator KeyToken
	Devices    []string
}
