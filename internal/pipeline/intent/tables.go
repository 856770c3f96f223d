package intent

import "media-pipeline/internal/common/config"

// Intent names produced by the default tables.
const (
	IntentGetInformation = "get_information"
	IntentBookTestDrive  = "book_test_drive"
	IntentBookCar        = "book_car"
	IntentUnknown        = "unknown"
)

// Param keys.
const (
	ParamCarMake  = "car_make"
	ParamCarModel = "car_model"
	ParamColor    = "color"
	ParamDate     = "date"
)

// Action maps an intent to its trigger phrases.
type Action struct {
	Intent  string
	Phrases []string
}

// Tables holds the lookup tables the extractor matches against. Order is
// significant everywhere: the first table entry that matches wins.
type Tables struct {
	Makes          []string
	Models         []string
	Colors         []string
	Actions        []Action
	Fallback       []string
	FallbackIntent string
	RelativeDates  []string
}

// DefaultTables returns the built-in car dealership tables.
func DefaultTables() Tables {
	return Tables{
		Makes:  []string{"Ford", "Toyota", "Honda", "BMW", "Audi"},
		Models: []string{"Mustang GT", "Civic", "Corolla", "A4", "X5"},
		Colors: []string{"red", "blue", "black", "white", "silver", "green"},
		Actions: []Action{
			{Intent: IntentGetInformation, Phrases: []string{"get information", "info", "details", "tell me about", "show me"}},
			{Intent: IntentBookTestDrive, Phrases: []string{"book test drive", "schedule test drive", "test drive"}},
			{Intent: IntentBookCar, Phrases: []string{"book", "reserve", "hold"}},
		},
		Fallback:       []string{"information", "details", "tell me"},
		FallbackIntent: IntentGetInformation,
		RelativeDates:  []string{"yesterday", "today", "tomorrow"},
	}
}

// FromConfig starts from DefaultTables and replaces every table the
// config sets.
func FromConfig(cfg config.IntentConfig) Tables {
	t := DefaultTables()
	if len(cfg.Makes) > 0 {
		t.Makes = cfg.Makes
	}
	if len(cfg.Models) > 0 {
		t.Models = cfg.Models
	}
	if len(cfg.Colors) > 0 {
		t.Colors = cfg.Colors
	}
	if len(cfg.Actions) > 0 {
		t.Actions = make([]Action, 0, len(cfg.Actions))
		for _, a := range cfg.Actions {
			t.Actions = append(t.Actions, Action{Intent: a.Intent, Phrases: a.Phrases})
		}
	}
	if len(cfg.Fallback) > 0 {
		t.Fallback = cfg.Fallback
	}
	return t
}

func (t Tables) clone() Tables {
	out := Tables{
		Makes:          append([]string(nil), t.Makes...),
		Models:         append([]string(nil), t.Models...),
		Colors:         append([]string(nil), t.Colors...),
		Fallback:       append([]string(nil), t.Fallback...),
		FallbackIntent: t.FallbackIntent,
		RelativeDates:  append([]string(nil), t.RelativeDates...),
		Actions:        make([]Action, len(t.Actions)),
	}
	for i, a := range t.Actions {
		out.Actions[i] = Action{Intent: a.Intent, Phrases: append([]string(nil), a.Phrases...)}
	}
	if out.FallbackIntent == "" {
		out.FallbackIntent = IntentGetInformation
	}
	return out
}
