package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type utilRow struct {
	ID string `json:"id"`
}

func TestReadJSONL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rows.jsonl")
	content := "{\"id\":\"a\"}\n\n{\"id\":\"b\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := readJSONL[utilRow](context.Background(), path)
	if err != nil {
		t.Fatalf("readJSONL: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "a" || rows[1].ID != "b" {
		t.Errorf("rows = %+v", rows)
	}

	if _, err := readJSONL[utilRow](context.Background(), ""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := readJSONL[utilRow](context.Background(), filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.jsonl")
	if err := os.WriteFile(bad, []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readJSONL[utilRow](context.Background(), bad); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestReadJSONLDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.jsonl"), []byte("{\"id\":\"2\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("{\"id\":\"1\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := readJSONL[utilRow](context.Background(), dir)
	if err != nil {
		t.Fatalf("readJSONL dir: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "1" || rows[1].ID != "2" {
		t.Errorf("rows = %+v, want files merged in name order", rows)
	}
}

func TestTakeFirstN(t *testing.T) {
	t.Parallel()

	in := []int{1, 2, 3}
	if got := takeFirstN(in, 0); len(got) != 3 {
		t.Errorf("n=0 should keep all, got %v", got)
	}
	if got := takeFirstN(in, 2); len(got) != 2 || got[1] != 2 {
		t.Errorf("n=2 = %v", got)
	}
	if got := takeFirstN(in, 10); len(got) != 3 {
		t.Errorf("n>len should keep all, got %v", got)
	}
}

func TestCompactStrings(t *testing.T) {
	t.Parallel()

	got := compactStrings([]string{" a ", "", "  ", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("compactStrings = %v", got)
	}
}
