// Package quality holds the thirteen requirement-quality criteria and the
// display metrics derived from backend assessments.
package quality

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PassThreshold is the lowest value rendered as green.
const PassThreshold = 70

// Criteria are the assessment keys expected from the backend, in display order.
var Criteria = []string{
	"clarity",
	"completeness",
	"consistency",
	"verifiability",
	"feasibility",
	"traceability",
	"modifiability",
	"prioritization",
	"unambiguity",
	"correctness",
	"understandability",
	"achievability",
	"relevance",
}

// ColorClass is the display bucket for a metric value.
type ColorClass string

const (
	Green  ColorClass = "green"
	Orange ColorClass = "orange"
)

// Metric is one criterion score prepared for display.
type Metric struct {
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Value      int        `json:"value"`
	ColorClass ColorClass `json:"colorClass"`
}

var titler = cases.Title(language.English)

// ClassFor returns green iff value >= PassThreshold.
func ClassFor(value int) ColorClass {
	if value >= PassThreshold {
		return Green
	}
	return Orange
}

// Clamp bounds a score to [0,100].
func Clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// NewMetric builds a metric for a criterion key.
func NewMetric(key string, value int) Metric {
	value = Clamp(value)
	return Metric{
		Key:        key,
		Name:       titler.String(key),
		Value:      value,
		ColorClass: ClassFor(value),
	}
}

// FromScores maps a backend score table onto all thirteen criteria.
// Missing criteria are reported as 0.
func FromScores(scores map[string]float64) []Metric {
	metrics := make([]Metric, 0, len(Criteria))
	for _, key := range Criteria {
		metrics = append(metrics, NewMetric(key, Round(scores[key])))
	}
	return metrics
}

// Round converts a backend score to the nearest integer.
func Round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// CountByClass reports how many metrics fall into each bucket.
func CountByClass(metrics []Metric) (green, orange int) {
	for _, m := range metrics {
		if m.ColorClass == Green {
			green++
		} else {
			orange++
		}
	}
	return green, orange
}
