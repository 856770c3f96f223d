package fields

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_ExtractFields(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Fields
	}{
		{
			name: "full registration document",
			raw:  "VEHICLE REGISTRATION\nName: John Doe\nReg No: ABC1234\nMake: Ford\nModel: Mustang GT\nDate: 2024-07-20\n",
			expected: Fields{
				FieldName:               "John Doe",
				FieldRegistrationNumber: "ABC1234",
				FieldCarMake:            "Ford",
				FieldCarModel:           "Mustang GT",
				FieldDate:               "2024-07-20",
			},
		},
		{
			name: "registration number is case insensitive",
			raw:  "registration no: xy12",
			expected: Fields{
				FieldRegistrationNumber: "xy12",
			},
		},
		{
			name: "values are trimmed",
			raw:  "Name:   Jane Smith   \nDate: 20/07/2024",
			expected: Fields{
				FieldName: "Jane Smith",
				FieldDate: "20/07/2024",
			},
		},
		{
			name:     "no matches",
			raw:      "nothing useful here",
			expected: Fields{},
		},
		{
			name:     "empty text",
			raw:      "",
			expected: Fields{},
		},
	}

	e := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractFields(tt.raw)

			tt.expected[FieldRawText] = tt.raw
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractor_RawTextAlwaysPresent(t *testing.T) {
	e := NewExtractor(nil)

	for _, raw := range []string{"", "garbage", "Name: A", "\n\n"} {
		got := e.ExtractFields(raw)
		v, ok := got[FieldRawText]
		assert.True(t, ok)
		assert.Equal(t, raw, v)
	}
}

func TestExtractor_CustomRules(t *testing.T) {
	e := NewExtractor([]Rule{{Field: "vin", Pattern: regexp.MustCompile(`VIN[:\s]+([A-Z0-9]{17})`)}})

	got := e.ExtractFields("VIN: 1HGCM82633A004352\nName: Jane")

	assert.Equal(t, Fields{"vin": "1HGCM82633A004352", FieldRawText: "VIN: 1HGCM82633A004352\nName: Jane"}, got)
}

func TestDefaultRules_ReturnsCopy(t *testing.T) {
	rules := DefaultRules()
	rules[0].Field = "changed"

	assert.Equal(t, FieldName, DefaultRules()[0].Field)
}
