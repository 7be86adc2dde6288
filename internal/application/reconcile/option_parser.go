package reconcile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Checkout Option Parsing
// ---------------------------------------------------------------------------

// ParsedOptions holds the demographic fields extracted from the free-form
// checkout question/answer map
type ParsedOptions struct {
	Gender           string
	BirthYear        string
	Occupation       string
	PreferredDateRaw string
}

// Key-substring heuristics per field. These match how stores phrase their
// checkout questions; mis-parses on unusual phrasing are acceptable.
var (
	genderTokens     = []string{"성별", "gender"}
	birthYearTokens  = []string{"출생", "생년", "birth"}
	occupationTokens = []string{"직업", "occupation"}
	prefDateTokens   = []string{"희망", "preferred"}
)

// ParseOptions scans the option map by key substring. Keys are visited in
// sorted order so that the "last match wins" rule is deterministic.
func ParseOptions(options map[string]string) ParsedOptions {
	var parsed ParsedOptions

	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := strings.TrimSpace(options[key])
		if value == "" {
			continue
		}
		lower := strings.ToLower(key)
		if matchesAny(lower, genderTokens) {
			parsed.Gender = value
		}
		if matchesAny(lower, birthYearTokens) {
			parsed.BirthYear = ExpandBirthYear(value)
		}
		if matchesAny(lower, occupationTokens) {
			parsed.Occupation = value
		}
		if matchesAny(lower, prefDateTokens) {
			parsed.PreferredDateRaw = normalizeWhitespace(value)
		}
	}
	return parsed
}

func matchesAny(key string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(key, t) {
			return true
		}
	}
	return false
}

var digitsRe = regexp.MustCompile(`\d+`)

// ExpandBirthYear extracts the year digits from a free-form answer and
// expands a 2-digit year with the pivot: >30 is 19xx, otherwise 20xx.
func ExpandBirthYear(raw string) string {
	digits := digitsRe.FindString(raw)
	switch len(digits) {
	case 4:
		return digits
	case 2:
		n, err := strconv.Atoi(digits)
		if err != nil {
			return ""
		}
		if n > 30 {
			return strconv.Itoa(1900 + n)
		}
		return strconv.Itoa(2000 + n)
	default:
		return ""
	}
}

// AgeFromBirthYear derives the age as current year minus birth year
func AgeFromBirthYear(birthYear string, now time.Time) int {
	year, err := strconv.Atoi(birthYear)
	if err != nil || year <= 0 {
		return 0
	}
	age := now.Year() - year
	if age < 0 {
		return 0
	}
	return age
}

var spacesRe = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

// ---------------------------------------------------------------------------
// Preferred-Date Resolution
// ---------------------------------------------------------------------------

// Month-day shorthands stores see in answers: "3월 15일", "3/15", "3-15",
// "3.15", "03월15일"
var monthDayRe = regexp.MustCompile(`(\d{1,2})\s*[월/\-.]\s*(\d{1,2})\s*일?`)

// ResolvePreferredDate resolves a month-day shorthand to a concrete date,
// assuming the nearest occurrence relative to base. Year boundary rule:
// base in Q4 and target in Q1 means next year; base in Q1 and target in Q4
// means previous year; otherwise the base year.
func ResolvePreferredDate(raw string, base time.Time) *time.Time {
	m := monthDayRe.FindStringSubmatch(normalizeWhitespace(raw))
	if m == nil {
		return nil
	}
	month, err := strconv.Atoi(m[1])
	if err != nil || month < 1 || month > 12 {
		return nil
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return nil
	}

	year := base.Year()
	baseMonth := int(base.Month())
	switch {
	case baseMonth >= 10 && month <= 3:
		year++
	case baseMonth <= 3 && month >= 10:
		year--
	}

	resolved := time.Date(year, time.Month(month), day, 0, 0, 0, 0, base.Location())
	if resolved.Day() != day {
		// Day overflowed the month (e.g. 2/31); treat as unparsable
		return nil
	}
	return &resolved
}
