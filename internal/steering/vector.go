package steering

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// VectorSet is a per-layer collection of steering directions plus the
// metadata needed to reproduce the extraction.
type VectorSet struct {
	Model     string            `json:"model"`
	Layers    []int             `json:"layers"`
	Dim       int               `json:"dim"`
	PairCount int               `json:"pair_count"`
	UsedPairs int               `json:"used_pairs"`
	CreatedAt time.Time         `json:"created_at"`
	Vectors   map[int][]float32 `json:"vectors"`
}

// Layer returns the vector for one layer, or nil when absent.
func (s *VectorSet) Layer(layer int) []float32 {
	if s == nil {
		return nil
	}
	return s.Vectors[layer]
}

// IsZero reports whether every component of every layer vector is zero.
func (s *VectorSet) IsZero() bool {
	if s == nil || len(s.Vectors) == 0 {
		return true
	}
	for _, v := range s.Vectors {
		for _, x := range v {
			if x != 0 {
				return false
			}
		}
	}
	return true
}

// Norms returns the L2 norm of each layer vector keyed by layer.
func (s *VectorSet) Norms() map[int]float64 {
	if s == nil {
		return nil
	}
	out := make(map[int]float64, len(s.Vectors))
	for layer, v := range s.Vectors {
		out[layer] = L2Norm(v)
	}
	return out
}

// Save writes the set as indented JSON, creating parent directories.
func (s *VectorSet) Save(path string) error {
	if s == nil {
		return fmt.Errorf("steering: save nil vector set")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("steering: empty vector path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("steering: create vector dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("steering: marshal vectors: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("steering: write %q: %w", path, err)
	}
	return nil
}

// Load reads a vector set written by Save and validates its shape.
func Load(path string) (*VectorSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("steering: empty vector path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("steering: read %q: %w", path, err)
	}
	var set VectorSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("steering: parse %q: %w", path, err)
	}
	if len(set.Vectors) == 0 {
		return nil, fmt.Errorf("steering: %q contains no vectors", path)
	}
	for layer, v := range set.Vectors {
		if set.Dim > 0 && len(v) != set.Dim {
			return nil, fmt.Errorf("steering: layer %d has dim %d, want %d", layer, len(v), set.Dim)
		}
	}
	if len(set.Layers) == 0 {
		for layer := range set.Vectors {
			set.Layers = append(set.Layers, layer)
		}
		sort.Ints(set.Layers)
	}
	return &set, nil
}
