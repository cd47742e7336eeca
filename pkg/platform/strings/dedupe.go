// Package strings holds small list helpers shared by config and query parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma separated value, trims each element and drops
// empties and repeats. Order of first appearance is kept.
//
//	SplitList(" kafka-1:9092, kafka-2:9092,,kafka-1:9092")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// DedupeAndTrim removes duplicates and blank entries, trimming each element.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return Dedupe(trimmed)
}

// Dedupe drops repeated values, keeping the first occurrence.
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
