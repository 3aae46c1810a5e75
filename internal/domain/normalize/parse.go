package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseClock converts "M:SS" clock text into seconds. Unparsable text is 0.
func ParseClock(text string) int {
	m, s, ok := strings.Cut(strings.TrimSpace(text), ":")
	if !ok {
		return 0
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 {
		return 0
	}
	// ESPN sends fractional seconds under a minute, e.g. "0:07.4".
	if whole, _, frac := strings.Cut(s, "."); frac {
		s = whole
	}
	seconds, err := strconv.Atoi(s)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0
	}
	return minutes*60 + seconds
}

// DownDistance is a parsed down-and-distance.
type DownDistance struct {
	Down     int
	Distance int
	Goal     bool
}

var (
	ordinalRe  = regexp.MustCompile(`(?i)\b(1st|first|2nd|second|3rd|third|4th|fourth)\b`)
	distanceRe = regexp.MustCompile(`&\s*(\d+)`)
	goalRe     = regexp.MustCompile(`(?i)&\s*goal\b.*?(\d+)\s*$`)
)

var ordinals = map[string]int{
	"1st": 1, "first": 1,
	"2nd": 2, "second": 2,
	"3rd": 3, "third": 3,
	"4th": 4, "fourth": 4,
}

// ParseDownDistance parses text like "1st & 10" or "4th & Goal at WSH 2".
// ok is false when no ordinal and distance could be found. Goal-to-go takes
// the trailing yard line as distance.
func ParseDownDistance(text string) (DownDistance, bool) {
	om := ordinalRe.FindStringSubmatch(text)
	if om == nil {
		return DownDistance{}, false
	}
	dd := DownDistance{Down: ordinals[strings.ToLower(om[1])]}

	if gm := goalRe.FindStringSubmatch(text); gm != nil {
		n, err := strconv.Atoi(gm[1])
		if err != nil {
			return DownDistance{}, false
		}
		dd.Distance, dd.Goal = n, true
		return dd, true
	}

	dm := distanceRe.FindStringSubmatch(text)
	if dm == nil {
		return DownDistance{}, false
	}
	n, err := strconv.Atoi(dm[1])
	if err != nil {
		return DownDistance{}, false
	}
	dd.Distance = n
	return dd, true
}

// FieldPosition is a parsed drive-end marker: the ball is YardLine yards from
// the goal line of the club abbreviated Abbrev.
type FieldPosition struct {
	Abbrev   string
	YardLine int
}

var markerRe = regexp.MustCompile(`^([A-Za-z]{2,4})\s+(\d{1,2})$`)

// ParseFieldPosition parses a "<ABBR> <yard-line>" marker such as "WSH 11".
func ParseFieldPosition(text string) (FieldPosition, error) {
	m := markerRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return FieldPosition{}, fmt.Errorf("%w: %q", ErrMalformedMarker, text)
	}
	yard, err := strconv.Atoi(m[2])
	if err != nil || yard > 50 {
		return FieldPosition{}, fmt.Errorf("%w: %q", ErrMalformedMarker, text)
	}
	return FieldPosition{Abbrev: strings.ToUpper(m[1]), YardLine: yard}, nil
}
