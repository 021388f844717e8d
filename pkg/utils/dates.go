package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/spf13/cast"
)

var formatAliases = map[string]string{
	"iso8601":   time.RFC3339,
	"rfc3339":   time.RFC3339,
	"rfc822":    time.RFC822,
	"rfc850":    time.RFC850,
	"rfc1123":   time.RFC1123,
	"unix":      time.UnixDate,
	"date":      "2006-01-02",
	"datetime":  DateTimeLayout,
	"time":      "15:04:05",
	"timestamp": "2006-01-02T15:04:05Z07:00",
}

var lenientLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	DateTimeLayout,
	"2006-01-02",
	"20060102",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/06",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC822,
}

var ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)

// ResolveFormat maps a format alias to its Go layout.
func ResolveFormat(format string) string {
	if alias, ok := formatAliases[strings.ToLower(format)]; ok {
		return alias
	}
	return format
}

func isStrftime(format string) bool {
	return strings.Contains(format, "%")
}

// ParseTime parses value with a Go layout, an alias, or a strftime pattern such as "%m%d%Y".
func ParseTime(format, value string) (time.Time, error) {
	if isStrftime(format) {
		return strftime.Parse(format, value)
	}
	return time.Parse(ResolveFormat(format), value)
}

// FormatTime renders t with a Go layout, an alias, or a strftime pattern.
func FormatTime(format string, t time.Time) string {
	if isStrftime(format) {
		return strftime.Format(format, t)
	}
	return t.Format(ResolveFormat(format))
}

// ParseLenient tries a list of common layouts, then falls back to cast's date parser.
func ParseLenient(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("unable to parse date: empty value")
	}
	s = ordinalSuffix.ReplaceAllString(s, "$1")

	for _, layout := range lenientLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	t, err := cast.ToTimeE(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
	}
	return t, nil
}
