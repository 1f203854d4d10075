package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/kero/internal/model"
)

// isolate points every default path at a temp dir and clears KERO_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{"KERO_CONFIG", "KERO_DB", "KERO_TABLE", "KERO_LOG_LEVEL", "KERO_LOG_FILE", "KERO_TERMINATOR", "KERO_DEVICES"} {
		t.Setenv(name, "")
	}
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const sampleScript = `# ctrl+c twice, then a, then stop
down LControl
down C
up C
down C
up C
up LControl
down A
up A
down Escape
up Escape
down B
up B
`

func TestRecordQueryClear(t *testing.T) {
	dir := isolate(t)

	if _, err := execute(t, sampleScript, "record", "--input", "-"); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, err := execute(t, "", "query")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, want := range []string{"| C+LControl | Combo  |     2 |", "| A          | Single |     1 |", "| Escape     | Single |     1 |"} {
		if !strings.Contains(out, want) {
			t.Fatalf("query output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "| B ") {
		t.Fatalf("keys after the terminator must not be recorded:\n%s", out)
	}

	out, err = execute(t, "", "query", "--combo")
	if err != nil {
		t.Fatalf("query --combo: %v", err)
	}
	if !strings.Contains(out, "C+LControl") || strings.Contains(out, "Single") {
		t.Fatalf("unexpected combo output:\n%s", out)
	}

	out, err = execute(t, "", "clear", "--backup")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	dbPath := filepath.Join(dir, "data", "kero", "keyboard.db")
	if strings.TrimSpace(out) != "Records cleared. Backup stored as "+dbPath+".backup." {
		t.Fatalf("unexpected clear output: %q", out)
	}
	if _, err := os.Stat(dbPath + ".backup"); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}

	out, err = execute(t, "", "query")
	if err != nil {
		t.Fatalf("query after clear: %v", err)
	}
	if strings.TrimSpace(out) != "No key records found." {
		t.Fatalf("unexpected output after clear: %q", out)
	}

	logContent, err := os.ReadFile(filepath.Join(dir, "data", "kero", "kero.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logContent), "INFO: Keyboard recorder is running. Press Esc to exit.") {
		t.Fatalf("log missing startup line:\n%s", logContent)
	}
}

func TestQueryFlagsAreExclusive(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{
		{"query", "--single", "--combo"},
		{"query", "-s", "-c"},
		{"query", "-s", "--filter", "combo"},
	} {
		if _, err := execute(t, "", args...); err == nil {
			t.Fatalf("%v: expected conflicting filters to fail", args)
		}
	}
}

func TestQueryShortFlagsAndFilter(t *testing.T) {
	dir := isolate(t)
	if _, err := execute(t, sampleScript, "record", "--input", "-"); err != nil {
		t.Fatalf("record: %v", err)
	}

	for _, args := range [][]string{{"query", "-s"}, {"query", "--filter", "single"}} {
		out, err := execute(t, "", args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(out, "| A ") || strings.Contains(out, "Combo") {
			t.Fatalf("%v: unexpected output:\n%s", args, out)
		}
	}
	for _, args := range [][]string{{"query", "-c"}, {"query", "--filter", "COMBO"}} {
		out, err := execute(t, "", args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(out, "C+LControl") || strings.Contains(out, "Single") {
			t.Fatalf("%v: unexpected output:\n%s", args, out)
		}
	}
	if _, err := execute(t, "", "query", "--filter", "triple"); err == nil {
		t.Fatalf("expected unknown filter to fail")
	}

	out, err := execute(t, "", "clear", "-b")
	if err != nil {
		t.Fatalf("clear -b: %v", err)
	}
	dbPath := filepath.Join(dir, "data", "kero", "keyboard.db")
	if strings.TrimSpace(out) != "Records cleared. Backup stored as "+dbPath+".backup." {
		t.Fatalf("unexpected clear output: %q", out)
	}
}

func TestClearWithoutDatabase(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "", "clear", "--backup")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if strings.TrimSpace(out) != "Records cleared. Backup skipped because no database file was present." {
		t.Fatalf("unexpected clear output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "kero", "keyboard.db")); !os.IsNotExist(err) {
		t.Fatalf("clear must not create the database, got %v", err)
	}

	out, err = execute(t, "", "clear")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if strings.TrimSpace(out) != "Records cleared." {
		t.Fatalf("unexpected clear output: %q", out)
	}
}

func TestStopAndStatusWhenNotRunning(t *testing.T) {
	isolate(t)
	for _, name := range []string{"stop", "status"} {
		out, err := execute(t, "", name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if strings.TrimSpace(out) != "Keyboard recorder is not running." {
			t.Fatalf("%s: unexpected output %q", name, out)
		}
	}
}

func TestStatusRejectsInvalidPIDFile(t *testing.T) {
	dir := isolate(t)
	pidPath := filepath.Join(dir, "run", "kero", "kero.pid")
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(pidPath, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := execute(t, "", "status"); err == nil {
		t.Fatalf("expected invalid pid error")
	}
}

func TestResolveSettingsPrecedence(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config", "kero", "config.toml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `
[recorder]
terminator = "F12"

[store]
path = "/from/file.db"
table = "combos"

[log]
level = "debug"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("KERO_LOG_LEVEL", "warn")

	cmd := newRootCmd()
	status, _, err := cmd.Find([]string{"status"})
	if err != nil {
		t.Fatalf("find status: %v", err)
	}
	if err := status.ParseFlags([]string{"--db", "/from/flag.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	s, err := resolveSettings(status)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Store.Path != "/from/flag.db" {
		t.Fatalf("flag should win for db, got %q", s.Store.Path)
	}
	if s.Store.Table != "combos" {
		t.Fatalf("file should set table, got %q", s.Store.Table)
	}
	if s.LogLevel != "warn" {
		t.Fatalf("env should win over file for log level, got %q", s.LogLevel)
	}
	if s.Recorder.Terminator != model.KeyToken("F12") {
		t.Fatalf("file should set terminator, got %q", s.Recorder.Terminator)
	}
	if got := daemonArgs(status); strings.Join(got, " ") != "__daemon --db /from/flag.db" {
		t.Fatalf("unexpected daemon args: %v", got)
	}
}
