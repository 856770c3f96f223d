// Package intent classifies free text into an intent plus car-related
// slot values using fixed lookup tables.
package intent

import (
	"strings"
	"unicode"
)

// Result is the classified intent. Params only holds keys whose lookup
// matched and is never nil.
type Result struct {
	Intent string            `json:"intent"`
	Params map[string]string `json:"params"`
}

// DateRecognizer finds the first date expression in free text.
type DateRecognizer interface {
	FirstDate(text string) (string, bool)
}

// Extractor is safe for concurrent use; its tables never change after
// construction.
type Extractor struct {
	tables Tables
	dates  DateRecognizer
}

// NewExtractor copies tables, so later changes by the caller have no
// effect. dates may be nil to disable entity recognition.
func NewExtractor(tables Tables, dates DateRecognizer) *Extractor {
	return &Extractor{tables: tables.clone(), dates: dates}
}

// Extract classifies text. It never fails.
func (e *Extractor) Extract(text string) Result {
	result := Result{Intent: IntentUnknown, Params: map[string]string{}}
	if strings.TrimSpace(text) == "" {
		return result
	}

	lowered := strings.ToLower(text)

	if v, ok := firstContained(lowered, e.tables.Makes); ok {
		result.Params[ParamCarMake] = v
	}
	if v, ok := firstContained(lowered, e.tables.Models); ok {
		result.Params[ParamCarModel] = v
	}
	if v, ok := firstContained(lowered, e.tables.Colors); ok {
		result.Params[ParamColor] = v
	}
	if v, ok := e.extractDate(text); ok {
		result.Params[ParamDate] = v
	}

	result.Intent = e.classify(lowered)
	return result
}

// firstContained returns the first entry, in table order, whose lowercase
// form occurs in lowered. The entry is returned with its table casing.
func firstContained(lowered string, table []string) (string, bool) {
	for _, entry := range table {
		if entry == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(entry)) {
			return entry, true
		}
	}
	return "", false
}

// extractDate prefers relative day words, kept as written, over the
// entity recognizer.
func (e *Extractor) extractDate(text string) (string, bool) {
	for _, token := range tokenize(text) {
		for _, word := range e.tables.RelativeDates {
			if strings.EqualFold(token, word) {
				return token, true
			}
		}
	}

	if e.dates == nil {
		return "", false
	}
	return e.dates.FirstDate(text)
}

func (e *Extractor) classify(lowered string) string {
	for _, action := range e.tables.Actions {
		if _, ok := firstContained(lowered, action.Phrases); ok {
			return action.Intent
		}
	}
	if _, ok := firstContained(lowered, e.tables.Fallback); ok {
		return e.tables.FallbackIntent
	}
	return IntentUnknown
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
