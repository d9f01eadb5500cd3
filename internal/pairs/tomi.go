package pairs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Control question types carry no ToM signal and are excluded from grouping.
const (
	typeMemory  = "memory"
	typeReality = "reality"
)

// LoadNative reads ToMi data in its native two-file format: a txt file of
// story blocks and a trace file with one classification line per block.
func LoadNative(dataDir, split string) ([]Example, error) {
	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" {
		return nil, fmt.Errorf("pairs: empty data dir")
	}
	split = strings.TrimSpace(split)
	if split == "" {
		split = "test"
	}

	txtPath, tracePath, err := resolveNativeFiles(dataDir, split)
	if err != nil {
		return nil, err
	}

	txtRaw, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, fmt.Errorf("pairs: read %q: %w", txtPath, err)
	}
	traceRaw, err := os.ReadFile(tracePath)
	if err != nil {
		return nil, fmt.Errorf("pairs: read %q: %w", tracePath, err)
	}

	blocks := splitStoryBlocks(string(txtRaw))
	traces := nonEmptyLines(string(traceRaw))

	if len(blocks) != len(traces) {
		return nil, fmt.Errorf("pairs: %d story blocks but %d trace lines in %q", len(blocks), len(traces), dataDir)
	}

	out := make([]Example, 0, len(blocks))
	for i, block := range blocks {
		questionType, storyType, err := parseTraceLine(traces[i])
		if err != nil {
			return nil, fmt.Errorf("pairs: trace line %d: %w", i+1, err)
		}

		story, question, answer, err := parseStoryBlock(block)
		if err != nil {
			return nil, fmt.Errorf("pairs: story block %d: %w", i+1, err)
		}

		requiresToM, order, baseType := classifyQuestionType(questionType)
		out = append(out, Example{
			Story:        story,
			Question:     question,
			Answer:       answer,
			QuestionType: questionType,
			StoryType:    storyType,
			RequiresToM:  requiresToM,
			ToMOrder:     order,
			BaseType:     baseType,
		})
	}
	return out, nil
}

func resolveNativeFiles(dataDir, split string) (string, string, error) {
	candidates := [][2]string{
		{fmt.Sprintf("fb_all_%s.txt", split), fmt.Sprintf("fb_all_%s.trace", split)},
		{split + ".txt", split + ".trace"},
	}

	for _, c := range candidates {
		txt := filepath.Join(dataDir, c[0])
		trace := filepath.Join(dataDir, c[1])
		if fileExists(txt) && fileExists(trace) {
			return txt, trace, nil
		}
	}
	return "", "", fmt.Errorf("pairs: no %s data files found in %q", split, dataDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// splitStoryBlocks cuts the txt file into per-story line groups. A line
// starting with "1 " begins a new story.
func splitStoryBlocks(content string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "1 ") && len(current) > 0 {
			blocks = append(blocks, current)
			current = []string{line}
			continue
		}
		if strings.TrimSpace(line) != "" {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseTraceLine splits "story_structure...,question_type,story_type".
func parseTraceLine(line string) (questionType, storyType string, err error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("malformed trace line %q", line)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// parseStoryBlock separates story lines from the tab-delimited question line.
func parseStoryBlock(lines []string) (story, question, answer string, err error) {
	var storyLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "\t") {
			storyLines = append(storyLines, line)
			continue
		}

		parts := strings.Split(line, "\t")
		qField := parts[0]
		if idx := strings.Index(qField, " "); idx >= 0 {
			question = qField[idx+1:]
		} else {
			question = qField
		}
		if len(parts) > 1 {
			answer = parts[1]
		}
	}

	if question == "" {
		return "", "", "", fmt.Errorf("no question line")
	}
	return strings.Join(storyLines, "\n"), question, answer, nil
}

// classifyQuestionType maps a ToMi question type to (requires ToM, order,
// base type). Control questions report order 0 and their own name as base.
func classifyQuestionType(questionType string) (requiresToM bool, order int, baseType string) {
	if questionType == typeMemory || questionType == typeReality {
		return false, 0, questionType
	}

	requiresToM = strings.HasSuffix(questionType, "_tom") && !strings.HasSuffix(questionType, "_no_tom")

	switch {
	case strings.Contains(questionType, "first_order"):
		order = 1
		baseType = "first_order_1"
		if strings.Contains(questionType, "_0_") {
			baseType = "first_order_0"
		}
	case strings.Contains(questionType, "second_order"):
		order = 2
		baseType = "second_order_1"
		if strings.Contains(questionType, "_0_") {
			baseType = "second_order_0"
		}
	default:
		baseType = questionType
	}
	return requiresToM, order, baseType
}
