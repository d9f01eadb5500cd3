package pairs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadPairs reads all_tom.jsonl and all_no_tom.jsonl from dir and aligns the
// two sides into pairs. Within each base question type the sides are zipped
// positionally and the longer side truncated.
func LoadPairs(dir string, limit int) ([]Pair, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("pairs: empty pair dir")
	}

	tom, err := ReadJSONL(filepath.Join(dir, "all_tom.jsonl"))
	if err != nil {
		return nil, err
	}
	noTom, err := ReadJSONL(filepath.Join(dir, "all_no_tom.jsonl"))
	if err != nil {
		return nil, err
	}

	pairs := zipByBaseType(tom, noTom)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("pairs: no aligned pairs in %q", dir)
	}
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

func zipByBaseType(tom, noTom []Example) []Pair {
	tomByBase := make(map[string][]Example)
	for _, ex := range tom {
		tomByBase[ex.BaseType] = append(tomByBase[ex.BaseType], ex)
	}
	noTomByBase := make(map[string][]Example)
	for _, ex := range noTom {
		noTomByBase[ex.BaseType] = append(noTomByBase[ex.BaseType], ex)
	}

	keys := make([]string, 0, len(tomByBase))
	for k := range tomByBase {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []Pair
	for _, key := range keys {
		ts := tomByBase[key]
		ns := noTomByBase[key]
		n := len(ts)
		if len(ns) < n {
			n = len(ns)
		}
		for i := 0; i < n; i++ {
			pairs = append(pairs, Pair{ToM: ts[i], NoToM: ns[i]})
		}
	}
	return pairs
}

// ReadJSONL decodes a file of newline-delimited example records.
func ReadJSONL(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pairs: open %q: %w", path, err)
	}
	defer f.Close()

	var out []Example
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ex Example
		if err := json.Unmarshal([]byte(text), &ex); err != nil {
			return nil, fmt.Errorf("pairs: %q line %d: %w", path, line, err)
		}
		out = append(out, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pairs: scan %q: %w", path, err)
	}
	return out, nil
}
