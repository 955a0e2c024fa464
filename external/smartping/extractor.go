package smartping

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	errorTagRegex = regexp.MustCompile(`(?is)<erreur\s*/?>(.*?)(?:</erreur>|$)`)
	cdataRegex    = regexp.MustCompile(`(?s)^<!\[CDATA\[(.*?)\]\]>$`)
)

// Record is one extracted element: requested field name to trimmed text.
type Record map[string]string

func (r Record) String(field string) string {
	return r[field]
}

// Int returns 0 for absent or unparseable values. Decimal values are truncated.
func (r Record) Int(field string) int {
	raw := strings.TrimSpace(r[field])
	if raw == "" {
		return 0
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if f, ok := parseDecimal(raw); ok {
		return int(f)
	}
	return 0
}

// OptionalInt is nil when the field is absent, as for unplayed fixture scores.
func (r Record) OptionalInt(field string) *int {
	raw := strings.TrimSpace(r[field])
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func (r Record) Float(field string) float64 {
	v, _ := parseDecimal(r[field])
	return v
}

func (r Record) OptionalFloat(field string) *float64 {
	v, ok := parseDecimal(r[field])
	if !ok {
		return nil
	}
	return &v
}

func parseDecimal(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Extractor pulls repeated elements out of an upstream payload.
type Extractor interface {
	Extract(payload, tag string, fields ...string) []Record
}

// PatternExtractor scans payloads with non-greedy tag patterns instead of a
// validating parser; upstream documents are not always well formed.
type PatternExtractor struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{patterns: make(map[string]*regexp.Regexp)}
}

func (e *PatternExtractor) Extract(payload, tag string, fields ...string) []Record {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.TrimSpace(payload) == "" {
		return []Record{}
	}
	if _, failed := UpstreamError(payload); failed {
		return []Record{}
	}

	matches := e.pattern(tag).FindAllStringSubmatch(payload, -1)
	out := make([]Record, 0, len(matches))
	for _, match := range matches {
		body := match[1]
		record := make(Record, len(fields))
		for _, field := range fields {
			record[field] = ""
			if found := e.pattern(field).FindStringSubmatch(body); found != nil {
				record[field] = cleanValue(found[1])
			}
		}
		out = append(out, record)
	}
	return out
}

func (e *PatternExtractor) pattern(tag string) *regexp.Regexp {
	e.mu.RLock()
	re, ok := e.patterns[tag]
	e.mu.RUnlock()
	if ok {
		return re
	}

	quoted := regexp.QuoteMeta(tag)
	re = regexp.MustCompile(`(?s)<` + quoted + `>(.*?)</` + quoted + `>`)

	e.mu.Lock()
	if e.patterns == nil {
		e.patterns = make(map[string]*regexp.Regexp)
	}
	e.patterns[tag] = re
	e.mu.Unlock()
	return re
}

func cleanValue(raw string) string {
	value := strings.TrimSpace(raw)
	if m := cdataRegex.FindStringSubmatch(value); m != nil {
		value = strings.TrimSpace(m[1])
	}
	return value
}

// UpstreamError reports whether payload carries an <erreur> element and its text.
func UpstreamError(payload string) (string, bool) {
	m := errorTagRegex.FindStringSubmatch(payload)
	if m == nil {
		return "", false
	}
	return cleanValue(m[1]), true
}
