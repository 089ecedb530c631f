package profile

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/scoutlens/pkg/textnorm"
)

// monthAbbrev maps the first three runes of a normalized month name to its
// number. English, Turkish and German names are covered; where two languages
// share a prefix they also share the month.
var monthAbbrev = map[string]time.Month{
	"jan": time.January, "oca": time.January,
	"feb": time.February, "sub": time.February,
	"mar": time.March,
	"apr": time.April, "nis": time.April,
	"may": time.May, "mai": time.May,
	"jun": time.June, "haz": time.June,
	"jul": time.July, "tem": time.July,
	"aug": time.August, "agu": time.August,
	"sep": time.September, "eyl": time.September,
	"oct": time.October, "okt": time.October, "eki": time.October,
	"nov": time.November, "kas": time.November,
	"dec": time.December, "dez": time.December, "ara": time.December,
}

var numericLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
}

// ParseDate reads the date formats found in market value histories:
// "Jun 23, 2025", "23 Haz 2025", "23. Juni 2025", "23.06.2025" and
// "2025-06-23". The second result is false when s matches none of them.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == Missing {
		return time.Time{}, false
	}
	for _, layout := range numericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	var (
		month     time.Month
		day, year int
	)
	for _, tok := range strings.Fields(textnorm.Normalize(s)) {
		if n, err := strconv.Atoi(tok); err == nil {
			switch {
			case n >= 1000 && year == 0:
				year = n
			case n >= 1 && n <= 31 && day == 0:
				day = n
			default:
				return time.Time{}, false
			}
			continue
		}
		if utf8.RuneCountInString(tok) < 3 || month != 0 {
			return time.Time{}, false
		}
		m, ok := monthAbbrev[string([]rune(tok)[:3])]
		if !ok {
			return time.Time{}, false
		}
		month = m
	}
	if month == 0 || year == 0 {
		return time.Time{}, false
	}
	if day == 0 {
		day = 1
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// SortHistoryNewestFirst orders points by date, most recent first. Points
// whose date cannot be read keep their relative order after all dated points.
func SortHistoryNewestFirst(points []MarketValuePoint) {
	type keyed struct {
		at    time.Time
		dated bool
		p     MarketValuePoint
	}
	keys := make([]keyed, len(points))
	for i, p := range points {
		at, ok := ParseDate(p.Date)
		keys[i] = keyed{at: at, dated: ok, p: p}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		switch {
		case a.dated && !b.dated:
			return -1
		case !a.dated && b.dated:
			return 1
		case !a.dated:
			return 0
		}
		return b.at.Compare(a.at)
	})
	for i, k := range keys {
		points[i] = k.p
	}
}

// multipliers are matched against the normalized unit tokens of a value:
// "35,00 mil. €", "500 bin €", "€35.00m", "12,50 Mio. €", "800 Tsd. €".
var multipliers = map[string]float64{
	"bn": 1e9, "mlr": 1e9, "mrd": 1e9,
	"m": 1e6, "mil": 1e6, "mio": 1e6,
	"k": 1e3, "bin": 1e3, "tsd": 1e3, "th": 1e3,
}

// ParseMarketValue converts a display value to euros.
func ParseMarketValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == Missing {
		return 0, false
	}
	s = strings.ReplaceAll(s, "€", "")

	// Split "35.00m" into number and unit.
	i := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '.' || r == ',' || r == ' ')
	})
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], s[i:]
	}
	num = strings.ReplaceAll(strings.TrimSpace(num), ",", ".")
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}

	mult := 1.0
	if fields := strings.Fields(textnorm.Normalize(unit)); len(fields) > 0 {
		m, ok := multipliers[fields[0]]
		if !ok {
			return 0, false
		}
		mult = m
	}
	return v * mult, true
}

// HighestMarketValue returns the display string of the largest readable
// value in points.
func HighestMarketValue(points []MarketValuePoint) (string, bool) {
	var (
		best    float64
		display string
	)
	for _, p := range points {
		v, ok := ParseMarketValue(p.Value)
		if ok && v > best {
			best, display = v, p.Value
		}
	}
	return display, best > 0
}
