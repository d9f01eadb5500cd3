package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cognalign/tomsteer/internal/benchmark"
	"github.com/cognalign/tomsteer/internal/store"
)

func newRunID(benchmarkName string) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s-%d", benchmarkName, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s-%s", benchmarkName, time.Now().UTC().Format("20060102T150405"), hex.EncodeToString(b))
}

func recordFromResult(id, vectorPath string, startedAt time.Time, res *benchmark.RunResult) *store.RunRecord {
	if res == nil {
		return nil
	}

	rec := &store.RunRecord{
		ID:          id,
		Model:       res.Model,
		Benchmark:   res.Benchmark,
		VectorPath:  strings.TrimSpace(vectorPath),
		Strength:    res.Strength,
		Accuracy:    res.Accuracy,
		TotalItems:  len(res.Items),
		TotalTokens: res.TotalTokens,
		StartedAt:   startedAt.UTC(),
		FinishedAt:  startedAt.Add(res.TotalTime).UTC(),
		Items:       make([]store.ItemRecord, 0, len(res.Items)),
	}
	for _, ir := range res.Items {
		if ir.Passed {
			rec.PassedItems++
		}
		if ir.Ambiguous {
			rec.AmbiguousItems++
		}
		rec.TotalLatency += ir.Latency.Milliseconds()
		rec.Items = append(rec.Items, store.ItemRecord{
			ItemID:    ir.ID,
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
	return rec
}
