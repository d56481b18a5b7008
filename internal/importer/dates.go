package importer

import (
	"strings"
	"time"
)

// Date-format tokens accepted in bank configurations, mapped to Go layouts.
// Longer tokens are replaced first so "YYYY" never half-matches.
var layoutTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
}

// goLayout converts a "DD/MM/YYYY" style format to a Go time layout.
func goLayout(format string) string {
	layout := format
	for _, t := range layoutTokens {
		layout = strings.ReplaceAll(layout, t.token, t.layout)
	}
	return layout
}

// ParseDate parses a statement date per the configured format. Unparsable
// text and out-of-range day/month values yield nil, never an error: the
// failure is deferred to row-level validation.
func ParseDate(value, format string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || format == "" {
		return nil
	}

	layout := goLayout(format)
	parsed, err := time.Parse(layout, trimmed)
	if err != nil {
		// Retry with zero-padded components for inputs like "1/5/2024".
		padded := padDateComponents(trimmed)
		parsed, err = time.Parse(layout, padded)
		if err != nil {
			return nil
		}
	}
	return &parsed
}

// padDateComponents left-pads single-digit date components to two digits,
// preserving the separators.
func padDateComponents(value string) string {
	var out strings.Builder
	start := 0
	flush := func(end int) {
		part := value[start:end]
		if len(part) == 1 {
			out.WriteByte('0')
		}
		out.WriteString(part)
	}
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '/', '-', '.':
			flush(i)
			out.WriteByte(value[i])
			start = i + 1
		}
	}
	flush(len(value))
	return out.String()
}
