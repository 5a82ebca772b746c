package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Capture reads a field value from the text that follows a label on the same
// line. following holds the lines after the label's line.
type Capture func(rest string, following []string) (string, bool)

// Rule is one declarative extraction rule. Labels are tried in order and the
// first label occurrence whose Capture succeeds wins. Fallback, when set, runs
// over all lines if no label produced a value.
type Rule struct {
	Field    Field
	Labels   []string
	Capture  Capture
	Fallback func(lines []string) string
}

// DefaultRules is the rule table for the dispatch order sheets
func DefaultRules() []Rule {
	return []Rule{
		{
			Field:    FieldDate,
			Labels:   []string{"Date", "Invoice Date", "Order Date"},
			Capture:  CaptureDate,
			Fallback: firstDate,
		},
		{
			Field:    FieldInvoiceNumber,
			Labels:   []string{"Invoice No", "Invoice Number", "Invoice", "Inv No", "INV"},
			Capture:  CaptureNumber,
			Fallback: firstLongNumber,
		},
		{
			Field:    FieldPONumber,
			Labels:   []string{"PO Number", "PO No", "PO", "P.O.", "Purchase Order", "Order No", "Pickup"},
			Capture:  CaptureCode,
			Fallback: firstOf(poBelowHeader, poBetweenBillAndShip),
		},
		{
			Field:   FieldCompanyName,
			Labels:  []string{"Bill To", "Sold To", "Invoice To"},
			Capture: CaptureTextOrNextLine,
		},
		{
			Field:   FieldPickupNumberTime,
			Labels:  []string{"Pick up number Time", "Pickup Time", "Pick up Time", "Collection Time"},
			Capture: CaptureText,
		},
		{
			Field:   FieldPallets,
			Labels:  []string{"Pallets", "Pallet Qty", "Plts"},
			Capture: CaptureNumber,
		},
	}
}

var (
	leadingDelims = " \t:#.-=–"
	fillerWords   = map[string]bool{"no": true, "nr": true, "num": true, "number": true}

	digitsRe = regexp.MustCompile(`^\d+`)
	codeRe   = regexp.MustCompile(`^[$A-Za-z0-9\-/]+`)
	dateRe   = regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}`)
	// columnGap ends a captured value: OCR renders table cells on one line
	// separated by runs of spaces or a rule.
	columnGap = regexp.MustCompile(`\s{2,}|\|`)
)

// skipLead drops delimiters and filler words ("No", "Number") that sit
// between a label and its value.
func skipLead(rest string) string {
	rest = strings.TrimLeft(rest, leadingDelims)
	for i := 0; i < 2; i++ {
		end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
		if end <= 0 || !fillerWords[strings.ToLower(rest[:end])] {
			break
		}
		rest = strings.TrimLeft(rest[end:], leadingDelims)
	}
	return rest
}

// CaptureNumber takes the run of digits directly after the label
func CaptureNumber(rest string, _ []string) (string, bool) {
	m := digitsRe.FindString(skipLead(rest))
	return m, m != ""
}

// CaptureCode takes an order code: 3 to 20 characters of letters, digits,
// '-' and '/', with at least one digit, that is not a date. A leading '$' is
// an OCR misread of 'S'.
func CaptureCode(rest string, _ []string) (string, bool) {
	return normalizeCode(codeRe.FindString(skipLead(rest)))
}

func normalizeCode(candidate string) (string, bool) {
	if len(candidate) < 3 || len(candidate) > 20 {
		return "", false
	}
	if !strings.ContainsAny(candidate, "0123456789") || dateRe.MatchString(candidate) {
		return "", false
	}
	if strings.HasPrefix(candidate, "$") {
		candidate = "S" + candidate[1:]
	}
	return candidate, true
}

// CaptureDate takes a d/m/y style date directly after the label
func CaptureDate(rest string, _ []string) (string, bool) {
	m := dateRe.FindString(strings.TrimLeft(rest, leadingDelims))
	return m, m != ""
}

// CaptureText takes the rest of the line up to the next column gap
func CaptureText(rest string, _ []string) (string, bool) {
	v := cell(strings.TrimLeft(rest, leadingDelims))
	return v, v != ""
}

// CaptureTextOrNextLine is CaptureText, falling back to the next non-empty
// line when the label stands alone. Bill To and Ship To blocks often share a
// line, so the value stops where a neighbouring block label starts.
func CaptureTextOrNextLine(rest string, following []string) (string, bool) {
	if v := cutAtBlockLabel(cell(strings.TrimLeft(rest, leadingDelims))); v != "" {
		return v, true
	}
	for _, line := range following {
		if v := cutAtBlockLabel(cell(line)); v != "" {
			return v, true
		}
	}
	return "", false
}

var blockLabels = compileLabels("Ship To", "Deliver To", "Ship VIA")

func compileLabels(raw ...string) []label {
	out := make([]label, len(raw))
	for i, r := range raw {
		out[i] = compileLabel(r)
	}
	return out
}

func cutAtBlockLabel(v string) string {
	exact := labelMatcher{}
	for _, l := range blockLabels {
		if spans := exact.find(v, l); len(spans) > 0 {
			v = v[:spans[0].start]
		}
	}
	return strings.TrimSpace(strings.TrimRight(v, leadingDelims))
}

func cell(s string) string {
	s = strings.TrimSpace(s)
	if loc := columnGap.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.Join(strings.Fields(s), " ")
}
