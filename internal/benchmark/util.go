package benchmark

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// readJSONL decodes newline-delimited JSON records from a file, or from every
// .jsonl file in a directory when path is a directory.
func readJSONL[T any](ctx context.Context, path string) ([]T, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("benchmark: empty jsonl path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return readJSONLDir[T](ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := decodeJSONLStream[T](ctx, f)
	if err != nil {
		return rows, fmt.Errorf("benchmark: %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func readJSONLDir[T any](ctx context.Context, dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".jsonl") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var out []T
	for _, p := range paths {
		rows, err := readJSONL[T](ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func decodeJSONLStream[T any](ctx context.Context, r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var out []T
	lineNum := 0
	for sc.Scan() {
		lineNum++
		if err := ctx.Err(); err != nil {
			return out, err
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return out, fmt.Errorf("line %d: %w", lineNum, err)
		}
		out = append(out, row)
	}
	if err := sc.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func takeFirstN[T any](in []T, n int) []T {
	if n <= 0 || n >= len(in) {
		return in
	}
	out := make([]T, 0, n)
	return append(out, in[:n]...)
}
