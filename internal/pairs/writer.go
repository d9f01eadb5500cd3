package pairs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Summary describes an extraction run's output for summary.json.
type Summary struct {
	Split       string           `json:"split"`
	TotalRead   int              `json:"total_read"`
	Groups      map[string]Sizes `json:"groups"`
	TotalToM    int              `json:"total_tom"`
	TotalNonToM int              `json:"total_no_tom"`
}

// Sizes holds per-group example counts.
type Sizes struct {
	ToM   int `json:"tom"`
	NoToM int `json:"no_tom"`
}

// WriteGrouped writes per-group JSONL files plus combined all_tom.jsonl and
// all_no_tom.jsonl, a summary.json, and a human-readable samples.txt.
func WriteGrouped(outDir, split string, totalRead int, groups map[string]*Group) (*Summary, error) {
	outDir = strings.TrimSpace(outDir)
	if outDir == "" {
		return nil, fmt.Errorf("pairs: empty output dir")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("pairs: create output dir: %w", err)
	}

	summary := &Summary{
		Split:     split,
		TotalRead: totalRead,
		Groups:    make(map[string]Sizes),
	}

	for _, key := range SortedKeys(groups) {
		g := groups[key]
		if err := writeJSONL(filepath.Join(outDir, key+"_tom.jsonl"), g.ToM); err != nil {
			return nil, err
		}
		if err := writeJSONL(filepath.Join(outDir, key+"_no_tom.jsonl"), g.NoToM); err != nil {
			return nil, err
		}
		summary.Groups[key] = Sizes{ToM: len(g.ToM), NoToM: len(g.NoToM)}
		summary.TotalToM += len(g.ToM)
		summary.TotalNonToM += len(g.NoToM)
	}

	tom, noTom := Flatten(groups)
	if err := writeJSONL(filepath.Join(outDir, "all_tom.jsonl"), tom); err != nil {
		return nil, err
	}
	if err := writeJSONL(filepath.Join(outDir, "all_no_tom.jsonl"), noTom); err != nil {
		return nil, err
	}

	if err := writeSummary(filepath.Join(outDir, "summary.json"), summary); err != nil {
		return nil, err
	}
	if err := writeSamples(filepath.Join(outDir, "samples.txt"), groups); err != nil {
		return nil, err
	}
	return summary, nil
}

func writeJSONL(path string, examples []Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pairs: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range examples {
		if err := enc.Encode(&examples[i]); err != nil {
			return fmt.Errorf("pairs: encode %q: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("pairs: flush %q: %w", path, err)
	}
	return f.Close()
}

func writeSummary(path string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("pairs: marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("pairs: write %q: %w", path, err)
	}
	return nil
}

// writeSamples emits one ToM and one non-ToM example per group for eyeballing.
func writeSamples(path string, groups map[string]*Group) error {
	var b strings.Builder
	for _, key := range SortedKeys(groups) {
		g := groups[key]
		fmt.Fprintf(&b, "=== %s ===\n", key)
		if len(g.ToM) > 0 {
			b.WriteString("-- tom --\n")
			writeSample(&b, g.ToM[0])
		}
		if len(g.NoToM) > 0 {
			b.WriteString("-- no_tom --\n")
			writeSample(&b, g.NoToM[0])
		}
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("pairs: write %q: %w", path, err)
	}
	return nil
}

func writeSample(b *strings.Builder, ex Example) {
	fmt.Fprintf(b, "story:\n%s\n", ex.Story)
	fmt.Fprintf(b, "question: %s\n", ex.Question)
	fmt.Fprintf(b, "answer: %s\n", ex.Answer)
	fmt.Fprintf(b, "question_type: %s\n", ex.QuestionType)
}
