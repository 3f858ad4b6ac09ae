package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunAcceptsRepositoryQueries(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"../../sqlinline"}, &stderr); code != 0 {
		t.Fatalf("sqlinline queries failed lint: %s", stderr.String())
	}
}

func TestRunReportsProblems(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\n"+
		"const QGood = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;`\n\n"+
		"const QDup = `--sql 11111111-2222-4333-8444-555555555555\nselect 2;`\n\n"+
		"const QMissing = \"delete from job_runs\"\n\n"+
		"const NotSQL = \"hello\"\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stderr.String()
	for _, want := range []string{"marker already used by QGood", "missing or invalid --sql <uuid> marker (QMissing)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "NotSQL") {
		t.Fatalf("non-SQL constant reported:\n%s", out)
	}
}

func TestRunMissingTarget(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{filepath.Join(t.TempDir(), "nope")}, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
