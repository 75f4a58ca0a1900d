// Package timeparsing resolves the time expressions accepted by --as-of:
// compact offsets (+6h, -1d, +2w), dates and RFC 3339 timestamps, and English
// phrases ("in 3 weeks", "next monday at 2pm").
package timeparsing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// compactRe matches [+-]?N<unit> with unit one of h, d, w, m (months), y.
var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

var nlp = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("empty time expression")

// IsCompactDuration reports whether s is a compact offset such as "+2w".
func IsCompactDuration(s string) bool {
	return compactRe.MatchString(s)
}

// ParseCompactDuration applies a compact offset to now. A missing sign means
// forward in time; m is months, not minutes.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", m[2])
	}
	if m[1] == "-" {
		n = -n
	}

	switch m[3] {
	case "h":
		return now.Add(time.Duration(n) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, n), nil
	case "w":
		return now.AddDate(0, 0, 7*n), nil
	case "m":
		return now.AddDate(0, n, 0), nil
	default: // "y"
		return now.AddDate(n, 0, 0), nil
	}
}

// ParseNaturalLanguage resolves an English phrase relative to now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("no date or time found in %q", s)
	}
	return r.Time, nil
}

// ParseRelativeTime tries, in order: compact offset, date (YYYY-MM-DD, in
// now's location), RFC 3339 timestamp, English phrase.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	if IsCompactDuration(s) {
		return ParseCompactDuration(s, now)
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := ParseNaturalLanguage(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (use +2w, 2006-01-02, RFC 3339 or a phrase like \"in 3 weeks\"): %w", s, err)
	}
	return t, nil
}
