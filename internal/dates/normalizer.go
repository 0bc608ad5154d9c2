// Package dates turns the localized date strings found on news listings into
// timestamps.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

// DefaultLocation is used when no zone is configured or the tz database is missing.
var DefaultLocation = time.FixedZone("WIB", 7*60*60)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}']+`)
	fallbackPattern = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+)\s+(\d{4})`)
)

// Normalizer parses localized date strings and falls back to the clock on failure.
type Normalizer struct {
	loc    *time.Location
	clock  crawler.Clock
	logger *zap.Logger
}

// NewNormalizer builds a Normalizer. Zone-less strings are interpreted in loc.
func NewNormalizer(loc *time.Location, clock crawler.Clock, logger *zap.Logger) *Normalizer {
	if loc == nil {
		loc = DefaultLocation
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{loc: loc, clock: clock, logger: logger}
}

// LoadLocation resolves an IANA zone name, falling back to DefaultLocation.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultLocation
	}
	return loc
}

// Normalize never fails: unparseable input yields the current time and a warning.
func (n *Normalizer) Normalize(raw string) time.Time {
	t, err := n.Parse(raw)
	if err == nil {
		return t
	}
	n.logger.Warn("date not recognized, using crawl time", zap.String("raw", raw), zap.Error(err))
	return n.now()
}

// Parse is the strict variant of Normalize.
func (n *Normalizer) Parse(raw string) (time.Time, error) {
	value := strings.Join(strings.Fields(Substitute(raw)), " ")
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", crawler.ErrDateParse)
	}

	stripped, zone, zoned := splitZone(value)
	for _, f := range Formats {
		input, loc := value, n.loc
		if f.Zoned {
			if !zoned {
				continue
			}
			input, loc = stripped, zone
		}
		if t, err := time.ParseInLocation(f.Layout, input, loc); err == nil {
			return t, nil
		}
	}

	if m := fallbackPattern.FindStringSubmatch(value); m != nil {
		month := canonicalMonth(m[2])
		if t, err := time.ParseInLocation(fallbackLayout, m[1]+" "+month+" "+m[3], n.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", crawler.ErrDateParse, raw)
}

// Substitute replaces localized weekday and month words with canonical abbreviations.
// Weekdays win over months for tokens present in both tables.
func Substitute(raw string) string {
	return wordPattern.ReplaceAllStringFunc(raw, func(word string) string {
		key := strings.ToLower(word)
		if day, ok := Weekdays[key]; ok {
			return day
		}
		if month, ok := Months[key]; ok {
			return month
		}
		return word
	})
}

func (n *Normalizer) now() time.Time {
	if n.clock == nil {
		return time.Now()
	}
	return n.clock.Now()
}

func splitZone(value string) (string, *time.Location, bool) {
	idx := strings.LastIndexByte(value, ' ')
	if idx < 0 {
		return value, nil, false
	}
	loc, ok := Zones[strings.ToUpper(value[idx+1:])]
	if !ok {
		return value, nil, false
	}
	return strings.TrimSpace(value[:idx]), loc, true
}

func canonicalMonth(token string) string {
	if month, ok := Months[strings.ToLower(token)]; ok {
		return month
	}
	r := []rune(token)
	if len(r) == 0 {
		return token
	}
	return strings.ToUpper(string(r[:1])) + strings.ToLower(string(r[1:]))
}
