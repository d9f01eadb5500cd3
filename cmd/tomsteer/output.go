package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cognalign/tomsteer/internal/benchmark"
)

type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

func parseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return FormatTable
	case "json":
		return FormatJSON
	default:
		return ""
	}
}

func resolveOutputFormat(flagValue string, configValue string) (OutputFormat, error) {
	if strings.TrimSpace(flagValue) != "" {
		out := parseOutputFormat(flagValue)
		if out == "" {
			return "", fmt.Errorf("invalid --output %q (expected table|json)", flagValue)
		}
		return out, nil
	}
	if out := parseOutputFormat(configValue); out != "" {
		return out, nil
	}
	return FormatTable, nil
}

func coloredStatus(passed bool) string {
	if passed {
		return colorGreen + "PASS" + colorReset
	}
	return colorRed + "FAIL" + colorReset
}

func FormatRunResult(runID string, res *benchmark.RunResult, format OutputFormat) string {
	switch format {
	case FormatTable:
		return formatRunTable(runID, res)
	case FormatJSON:
		return formatRunJSON(runID, res)
	default:
		return fmt.Sprintf("error: unknown output format %q\n", format)
	}
}

func formatRunTable(runID string, res *benchmark.RunResult) string {
	if res == nil {
		return "Run: <nil>\n\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Run: %s benchmark=%s model=%s strength=%.2f\n", runID, res.Benchmark, res.Model, res.Strength)
	fmt.Fprintf(&buf, "Items: %d accuracy=%.4f ambiguous=%d time_ms=%d tokens=%d\n",
		len(res.Items), res.Accuracy, res.Ambiguous, res.TotalTime.Milliseconds(), res.TotalTokens)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tRESULT\tSCORE\tLAT(ms)\tTOKENS\tERROR")
	for _, ir := range res.Items {
		status := coloredStatus(ir.Passed)
		if ir.Ambiguous {
			status = "AMBIG"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%d\t%d\t%s\n",
			ir.ID, status, ir.Score, ir.Latency.Milliseconds(), ir.Tokens, ir.Error)
	}
	_ = tw.Flush()
	buf.WriteByte('\n')
	return buf.String()
}

type jsonRunResult struct {
	RunID       string        `json:"run_id"`
	Benchmark   string        `json:"benchmark"`
	Model       string        `json:"model"`
	Strength    float64       `json:"strength"`
	Accuracy    float64       `json:"accuracy"`
	Ambiguous   int           `json:"ambiguous"`
	TotalTimeMs int64         `json:"total_time_ms"`
	TotalTokens int           `json:"total_tokens"`
	Items       []jsonRunItem `json:"items"`
}

type jsonRunItem struct {
	ID        string  `json:"id"`
	Category  string  `json:"category,omitempty"`
	Response  string  `json:"response"`
	Score     float64 `json:"score"`
	Passed    bool    `json:"passed"`
	Ambiguous bool    `json:"ambiguous"`
	LatencyMs int64   `json:"latency_ms"`
	Tokens    int     `json:"tokens"`
	Error     string  `json:"error,omitempty"`
}

func formatRunJSON(runID string, res *benchmark.RunResult) string {
	if res == nil {
		return "{\"error\":\"nil run result\"}\n"
	}

	out := jsonRunResult{
		RunID:       runID,
		Benchmark:   res.Benchmark,
		Model:       res.Model,
		Strength:    res.Strength,
		Accuracy:    res.Accuracy,
		Ambiguous:   res.Ambiguous,
		TotalTimeMs: res.TotalTime.Milliseconds(),
		TotalTokens: res.TotalTokens,
		Items:       make([]jsonRunItem, 0, len(res.Items)),
	}
	for _, ir := range res.Items {
		out.Items = append(out.Items, jsonRunItem{
			ID:        ir.ID,
			Category:  ir.Category,
			Response:  ir.Response,
			Score:     ir.Score,
			Passed:    ir.Passed,
			Ambiguous: ir.Ambiguous,
			LatencyMs: ir.Latency.Milliseconds(),
			Tokens:    ir.Tokens,
			Error:     ir.Error,
		})
	}

	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(b) + "\n"
}

// formatSweepTable summarizes one run per strength, baseline first.
func formatSweepTable(benchmarkName, model string, rows []sweepRow) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Sweep: benchmark=%s model=%s runs=%d\n", benchmarkName, model, len(rows))

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRENGTH\tRUN_ID\tACCURACY\tAMBIGUOUS\tTOKENS\tTIME(ms)")
	for _, row := range rows {
		fmt.Fprintf(tw, "%.2f\t%s\t%.4f\t%d\t%d\t%d\n",
			row.Strength, row.RunID, row.Accuracy, row.Ambiguous, row.Tokens, row.TimeMs)
	}
	_ = tw.Flush()
	buf.WriteByte('\n')
	return buf.String()
}

type sweepRow struct {
	Strength  float64
	RunID     string
	Accuracy  float64
	Ambiguous int
	Tokens    int
	TimeMs    int64
}
