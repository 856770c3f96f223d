package intent

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// subDayUnits marks offsets finer than a day ("in 2 hours").
var subDayUnits = regexp.MustCompile(`(?i)\b(?:seconds?|min(?:ute)?s?|hours?)\b`)

// WhenRecognizer finds calendar date expressions ("next friday",
// "march 3rd", "in 2 days", "12/05") with the day-level olebedev/when
// rules. Times of day are not dates and are never returned.
type WhenRecognizer struct {
	parser *when.Parser
	now    func() time.Time
}

func NewWhenRecognizer() *WhenRecognizer {
	w := when.New(nil)
	w.Add(
		en.Weekday(rules.Override),
		en.CasualDate(rules.Override),
		en.Deadline(rules.Override),
		en.PastTime(rules.Override),
		en.ExactMonthDate(rules.Override),
		common.SlashDMY(rules.Override),
	)
	return &WhenRecognizer{parser: w, now: time.Now}
}

// FirstDate returns the text of the first date expression, skipping
// matches that only name a time or a bare month.
func (r *WhenRecognizer) FirstDate(text string) (string, bool) {
	ref := r.now()
	rest := text
	for rest != "" {
		res, err := r.parser.Parse(rest, ref)
		if err != nil || res == nil || res.Index < 0 {
			return "", false
		}

		match := strings.TrimFunc(res.Text, func(c rune) bool {
			return !unicode.IsLetter(c) && !unicode.IsDigit(c)
		})
		if isCalendarDate(match) {
			return match, true
		}

		next := res.Index + len(res.Text)
		if next <= 0 || next > len(rest) {
			return "", false
		}
		rest = rest[next:]
	}
	return "", false
}

func isCalendarDate(match string) bool {
	lowered := strings.ToLower(match)
	switch {
	case lowered == "":
		return false
	case lowered == "now":
		return false
	case subDayUnits.MatchString(lowered):
		return false
	}
	_, bareMonth := en.MONTH_OFFSET[lowered]
	if !bareMonth {
		_, bareMonth = en.MONTH_OFFSET[lowered+"."]
	}
	return !bareMonth
}
