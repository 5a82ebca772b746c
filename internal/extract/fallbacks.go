package extract

import (
	"regexp"
	"strings"
)

var (
	anyDateRe       = regexp.MustCompile(`(?:^|[^\d])(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4})(?:[^\d]|$)`)
	longNumberRe    = regexp.MustCompile(`(?:^|[^\d])(\d{8,})(?:[^\d]|$)`)
	standaloneCode  = regexp.MustCompile(`^[$A-Za-z0-9\-/]+$`)
	standaloneDigit = regexp.MustCompile(`^\d{4,12}$`)

	poHeader   = compileLabel("PO")
	billTo     = compileLabel("Bill To")
	shipLabels = compileLabels("Ship VIA", "Ship To")
)

// poLookahead is how many lines below a PO header may hold its value
const poLookahead = 4

func firstOf(fns ...func([]string) string) func([]string) string {
	return func(lines []string) string {
		for _, fn := range fns {
			if v := fn(lines); v != "" {
				return v
			}
		}
		return ""
	}
}

// firstDate returns the first full d/m/yyyy date anywhere in the text
func firstDate(lines []string) string {
	for _, line := range lines {
		if m := anyDateRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// firstLongNumber returns the first run of eight or more digits. Invoice
// numbers on these sheets are long; phone numbers are usually spaced.
func firstLongNumber(lines []string) string {
	for _, line := range lines {
		if m := longNumberRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// poBelowHeader handles table layouts where "PO" is a column header and the
// value sits on one of the following lines.
func poBelowHeader(lines []string) string {
	exact := labelMatcher{}
	for i, line := range lines {
		if len(exact.find(line, poHeader)) == 0 {
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+poLookahead; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || !standaloneCode.MatchString(next) {
				continue
			}
			if v, ok := normalizeCode(next); ok {
				return v
			}
		}
	}
	return ""
}

// poBetweenBillAndShip takes a standalone 4 to 12 digit line between the
// Bill To block and the Ship VIA / Ship To block.
func poBetweenBillAndShip(lines []string) string {
	exact := labelMatcher{}
	bill, ship := -1, -1
	for i, line := range lines {
		if bill < 0 && len(exact.find(line, billTo)) > 0 {
			bill = i
		}
		if bill >= 0 && i > bill && hasAnyLabel(exact, line, shipLabels) {
			ship = i
			break
		}
	}
	if bill < 0 || ship < 0 {
		return ""
	}
	for _, line := range lines[bill+1 : ship] {
		if c := strings.TrimSpace(line); standaloneDigit.MatchString(c) {
			return c
		}
	}
	return ""
}

func hasAnyLabel(m labelMatcher, line string, labels []label) bool {
	for _, l := range labels {
		if len(m.find(line, l)) > 0 {
			return true
		}
	}
	return false
}
