package planner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/malbeclabs/scichart/pkg/plan"
)

// Doctypes is the document-type vocabulary recognized in free text.
var Doctypes = []string{"article", "preprint", "conference", "journal", "proceedings"}

var (
	compareRangesRe = regexp.MustCompile(`(\d{4})\s*[-–]\s*(\d{4}).*?\b(vs|versus|compare)\b.*?(\d{4})\s*[-–]\s*(\d{4})`)
	topKRe          = regexp.MustCompile(`\btop[_\s-]*k\s*[:=]?\s*(\d{1,4})\b`)
	scoreMinRe      = regexp.MustCompile(`\b((?:field|label)[_\s-]*score[_\s-]*min|threshold|score)\s*[:=]?\s*(0?\.\d+|\d+(?:\.\d+)?)\b`)
	levelRe         = regexp.MustCompile(`\b((?:field|label)[_\s-]*level|level)\s*[:=]?\s*(\d{1,2})\b`)
	doctypeRes      = compileDoctypes(Doctypes)
)

func compileDoctypes(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// CompareRanges is the result of matching "YYYY-YYYY vs YYYY-YYYY".
type CompareRanges struct {
	YearFrom        int
	YearTo          int
	CompareYearFrom int
	CompareYearTo   int
}

// An override matcher inspects lower-cased user text and, on a match, writes
// its field into the raw plan.
type override func(text string, r plan.Raw)

// overrides run in order; later matchers win on shared fields.
var overrides = []override{
	func(text string, r plan.Raw) {
		if m, ok := MatchCompareRanges(text); ok {
			r[plan.KeyCompare] = true
			r[plan.KeyYearFrom] = m.YearFrom
			r[plan.KeyYearTo] = m.YearTo
			r[plan.KeyCompareYearFrom] = m.CompareYearFrom
			r[plan.KeyCompareYearTo] = m.CompareYearTo
		}
	},
	func(text string, r plan.Raw) {
		if k, ok := MatchTopK(text); ok {
			r[plan.KeyTopK] = k
		}
	},
	func(text string, r plan.Raw) {
		if s, ok := MatchScoreMin(text); ok {
			r[plan.KeyLabelScoreMin] = s
		}
	},
	func(text string, r plan.Raw) {
		if l, ok := MatchLevel(text); ok {
			r[plan.KeyLabelLevel] = l
		}
	},
	func(text string, r plan.Raw) {
		if d, ok := MatchDoctype(text); ok {
			r[plan.KeyDoctype] = d
		}
	},
}

func applyOverrides(userText string, r plan.Raw) {
	text := strings.ToLower(userText)
	for _, o := range overrides {
		o(text, r)
	}
}

func MatchCompareRanges(text string) (CompareRanges, bool) {
	m := compareRangesRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return CompareRanges{}, false
	}
	return CompareRanges{
		YearFrom:        atoi(m[1]),
		YearTo:          atoi(m[2]),
		CompareYearFrom: atoi(m[4]),
		CompareYearTo:   atoi(m[5]),
	}, true
}

func MatchTopK(text string) (int, bool) {
	m := topKRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	return atoi(m[1]), true
}

func MatchScoreMin(text string) (float64, bool) {
	m := scoreMinRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func MatchLevel(text string) (int, bool) {
	m := levelRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	return atoi(m[2]), true
}

// MatchDoctype returns the first vocabulary word that appears as a whole word.
func MatchDoctype(text string) (string, bool) {
	text = strings.ToLower(text)
	for i, re := range doctypeRes {
		if re.MatchString(text) {
			return Doctypes[i], true
		}
	}
	return "", false
}

// atoi is only called on digit-only regexp captures.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
