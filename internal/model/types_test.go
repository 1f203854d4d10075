package model

import "testing"

func permutations(in []KeyToken) [][]KeyToken {
	if len(in) <= 1 {
		return [][]KeyToken{append([]KeyToken(nil), in...)}
	}
	var out [][]KeyToken
	for i := range in {
		rest := make([]KeyToken, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]KeyToken{in[i]}, p...))
		}
	}
	return out
}

func TestNewComboSnapshotOrderIndependent(t *testing.T) {
	keys := []KeyToken{"LShift", "A", "LControl", "Key1"}
	want := "A+Key1+LControl+LShift"
	perms := permutations(keys)
	if len(perms) != 24 {
		t.Fatalf("expected 24 permutations, got %d", len(perms))
	}
	for _, p := range perms {
		snap := NewComboSnapshot(p)
		if snap.Keys != want {
			t.Fatalf("permutation %v produced %q, want %q", p, snap.Keys, want)
		}
		if snap.Single {
			t.Fatalf("expected combo for %v", p)
		}
	}
}

func TestNewComboSnapshotDedupes(t *testing.T) {
	snap := NewComboSnapshot([]KeyToken{"A", "A", ""})
	if snap.Keys != "A" {
		t.Fatalf("unexpected keys: %q", snap.Keys)
	}
	if !snap.Single {
		t.Fatalf("expected single-key snapshot")
	}
	if len(snap.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(snap.Members))
	}
	if !NewComboSnapshot(nil).Empty() {
		t.Fatalf("expected empty snapshot for no tokens")
	}
}

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{"": FilterAll, "all": FilterAll, "Single": FilterSingle, "combo": FilterCombo}
	for in, want := range cases {
		got, err := ParseFilter(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v, want %v", in, got, want)
		}
	}
	if _, err := ParseFilter("chord"); err == nil {
		t.Fatalf("expected error for unknown filter")
	}
}
