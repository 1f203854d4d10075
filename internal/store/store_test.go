package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/verte-zerg/kero/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "keyboard.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func snap(keys ...model.KeyToken) model.ComboSnapshot {
	return model.NewComboSnapshot(keys)
}

func upsertN(t *testing.T, st *Store, s model.ComboSnapshot, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := st.Upsert(context.Background(), s); err != nil {
			t.Fatalf("upsert %q: %v", s.Keys, err)
		}
	}
}

func TestUpsertCountsEveryOccurrence(t *testing.T) {
	st := openTestStore(t)
	upsertN(t, st, snap("LControl", "C"), 7)

	records, err := st.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(records), records)
	}
	if records[0].Keys != "C+LControl" || records[0].PressTimes != 7 || records[0].Single {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestUpsertRejectsEmptySnapshot(t *testing.T) {
	st := openTestStore(t)
	err := st.Upsert(context.Background(), model.ComboSnapshot{})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestConcurrentUpsertsDoNotLoseUpdates(t *testing.T) {
	st := openTestStore(t)
	const workers = 2
	const perWorker = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := st.Upsert(context.Background(), snap("A", "LShift")); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("upsert: %v", err)
	}

	records, err := st.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single row, got %d", len(records))
	}
	if records[0].PressTimes != workers*perWorker {
		t.Fatalf("expected %d presses, got %d", workers*perWorker, records[0].PressTimes)
	}
}

func TestQueryOrdersByCountThenKeys(t *testing.T) {
	st := openTestStore(t)
	upsertN(t, st, snap("C"), 3)
	upsertN(t, st, snap("B", "LAlt"), 5)
	upsertN(t, st, snap("A"), 5)

	records, err := st.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []model.ComboRecord{
		{Keys: "A", Single: true, PressTimes: 5},
		{Keys: "B+LAlt", Single: false, PressTimes: 5},
		{Keys: "C", Single: true, PressTimes: 3},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestQueryFilters(t *testing.T) {
	st := openTestStore(t)
	upsertN(t, st, snap("A"), 1)
	upsertN(t, st, snap("Escape"), 2)
	upsertN(t, st, snap("LControl", "V"), 4)
	upsertN(t, st, snap("LControl", "LShift", "T"), 1)

	singles, err := st.Query(context.Background(), model.FilterSingle)
	if err != nil {
		t.Fatalf("query single: %v", err)
	}
	if len(singles) != 2 {
		t.Fatalf("expected 2 single records, got %d", len(singles))
	}
	for _, rec := range singles {
		if !rec.Single {
			t.Fatalf("combo record in single filter: %+v", rec)
		}
	}

	combos, err := st.Query(context.Background(), model.FilterCombo)
	if err != nil {
		t.Fatalf("query combo: %v", err)
	}
	if len(combos) != 2 {
		t.Fatalf("expected 2 combo records, got %d", len(combos))
	}
	if combos[0].Keys != "LControl+V" || combos[1].Keys != "LControl+LShift+T" {
		t.Fatalf("unexpected combo order: %+v", combos)
	}

	totals, err := st.Totals(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Distinct != 4 || totals.Presses != 8 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestClearWithBackup(t *testing.T) {
	st := openTestStore(t)
	upsertN(t, st, snap("A"), 3)

	result, err := st.Clear(context.Background(), true)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !result.BackedUp() || result.BackupSkipped {
		t.Fatalf("expected a backup, got %+v", result)
	}
	if result.BackupPath != st.Config().Path+DefaultBackupSuffix {
		t.Fatalf("unexpected backup path: %s", result.BackupPath)
	}
	if result.Removed != 1 {
		t.Fatalf("expected 1 removed row, got %d", result.Removed)
	}

	records, err := st.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store after clear, got %+v", records)
	}

	backup, err := Open(Config{Path: result.BackupPath})
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer func() {
		_ = backup.Close()
	}()
	saved, err := backup.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query backup: %v", err)
	}
	if len(saved) != 1 || saved[0].PressTimes != 3 {
		t.Fatalf("unexpected backup contents: %+v", saved)
	}
}

func TestClearBackupFailureKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Path: filepath.Join(dir, "keyboard.db"), BackupSuffix: "/missing/copy"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	upsertN(t, st, snap("A"), 2)

	if _, err := st.Clear(context.Background(), true); !errors.Is(err, ErrBackup) {
		t.Fatalf("expected ErrBackup, got %v", err)
	}
	records, err := st.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].PressTimes != 2 {
		t.Fatalf("records changed after failed backup: %+v", records)
	}
}

func TestClearInMemorySkipsBackup(t *testing.T) {
	st, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	upsertN(t, st, snap("A"), 1)

	result, err := st.Clear(context.Background(), true)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.BackedUp() || !result.BackupSkipped {
		t.Fatalf("expected skipped backup, got %+v", result)
	}
}

func TestClearPathMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")
	result, err := ClearPath(context.Background(), Config{Path: path}, true)
	if err != nil {
		t.Fatalf("clear path: %v", err)
	}
	if !result.BackupSkipped || result.BackedUp() {
		t.Fatalf("expected skipped backup, got %+v", result)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("clear created the store file: %v", err)
	}
}

func TestOpenRejectsInvalidTable(t *testing.T) {
	_, err := Open(Config{Path: filepath.Join(t.TempDir(), "k.db"), Table: "keys; DROP TABLE x"})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestOpenReusesExistingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyboard.db")
	first, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	upsertN(t, first, snap("A"), 2)
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	second, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() {
		_ = second.Close()
	}()
	upsertN(t, second, snap("A"), 1)
	records, err := second.Query(context.Background(), model.FilterAll)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].PressTimes != 3 {
		t.Fatalf("unexpected records after reopen: %+v", records)
	}
}
