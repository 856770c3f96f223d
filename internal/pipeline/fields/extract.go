// Package fields turns registration document images into key/value fields.
package fields

import (
	"regexp"
	"strings"
)

// Field keys.
const (
	FieldName               = "name"
	FieldRegistrationNumber = "registration_number"
	FieldCarMake            = "car_make"
	FieldCarModel           = "car_model"
	FieldDate               = "date"
	FieldRawText            = "raw_text"
)

// Fields always carries raw_text.
type Fields map[string]string

// Rule extracts one field from the first capture group of Pattern.
type Rule struct {
	Field   string
	Pattern *regexp.Regexp
}

var defaultRules = []Rule{
	{Field: FieldName, Pattern: regexp.MustCompile(`Name[:\s]+([A-Za-z ]+)`)},
	{Field: FieldRegistrationNumber, Pattern: regexp.MustCompile(`(?i)Reg(?:istration)? No[:\s]+([A-Z0-9]+)`)},
	{Field: FieldCarMake, Pattern: regexp.MustCompile(`Make[:\s]+([A-Za-z]+)`)},
	{Field: FieldCarModel, Pattern: regexp.MustCompile(`Model[:\s]+([A-Za-z0-9 ]+)`)},
	{Field: FieldDate, Pattern: regexp.MustCompile(`Date[:\s]+([0-9\-/]+)`)},
}

// DefaultRules returns the registration document rules.
func DefaultRules() []Rule {
	return append([]Rule(nil), defaultRules...)
}

// Extractor applies independent rules to OCR text.
type Extractor struct {
	rules []Rule
}

// NewExtractor uses DefaultRules when rules is empty.
func NewExtractor(rules []Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: append([]Rule(nil), rules...)}
}

// ExtractFields never fails: rules that do not match leave their field out.
func (e *Extractor) ExtractFields(rawText string) Fields {
	out := Fields{FieldRawText: rawText}
	for _, rule := range e.rules {
		m := rule.Pattern.FindStringSubmatch(rawText)
		if len(m) < 2 {
			continue
		}
		out[rule.Field] = strings.TrimSpace(m[1])
	}
	return out
}
