// Package normalize flattens the log store's nested result into one
// ordered record sequence with unit-normalized timestamps.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/config"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/logstore"
)

const nanosPerSecond = int64(1e9)

// EmptyResultMessage is the fixed terminal message when zero records
// survive normalization. The analyzer is never invoked in that case.
const EmptyResultMessage = "No logs found for the specified container and time range."

// Record is one normalized log entry. Timestamps are unix seconds.
type Record struct {
	Timestamp int64
	Message   string
}

// Line renders the record the way both the raw-logs output and the
// analysis prompts present it.
func (r Record) Line() string {
	return fmt.Sprintf("Timestamp: %d, Message: %s", r.Timestamp, r.Message)
}

// Normalizer flattens raw query responses
type Normalizer struct {
	unit config.TimestampUnit
}

// New creates a normalizer for the configured timestamp unit
func New(unit config.TimestampUnit) *Normalizer {
	return &Normalizer{unit: unit}
}

// Flatten walks every stream's value list in return order and produces
// one ordered record sequence. No reordering, no deduplication. Malformed
// pairs are skipped.
func (n *Normalizer) Flatten(resp *logstore.QueryResponse) []Record {
	if resp == nil {
		return nil
	}

	var records []Record
	for _, stream := range resp.Data.Result {
		for _, pair := range stream.Values {
			if len(pair) < 2 {
				continue
			}
			ts, ok := parseTimestamp(pair[0])
			if !ok {
				continue
			}
			msg, ok := pair[1].(string)
			if !ok {
				continue
			}
			if n.unit == config.UnitNanoseconds {
				ts /= nanosPerSecond
			}
			records = append(records, Record{Timestamp: ts, Message: msg})
		}
	}
	return records
}

// RenderLines renders records as the newline-joined raw log text exposed
// to the caller and embedded in analysis errors.
func RenderLines(records []Record) string {
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = rec.Line()
	}
	return strings.Join(lines, "\n")
}

// parseTimestamp accepts the store's string or numeric serialization
func parseTimestamp(v any) (int64, bool) {
	switch val := v.(type) {
	case string:
		ts, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return ts, true
	case float64:
		return int64(val), true
	case int64:
		return val, true
	default:
		return 0, false
	}
}
