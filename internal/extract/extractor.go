package extract

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLabelTolerance allows one OCR edit per label word ("Invoce", "Pa11ets")
const DefaultLabelTolerance = 1

// Pick/Delivery values
const (
	Pickup   = "P"
	Delivery = "D"
)

// Options configures an Extractor
type Options struct {
	// LabelTolerance is the maximum edit distance per label word. Zero means
	// labels must match exactly (ignoring case and punctuation).
	LabelTolerance int
}

type compiledRule struct {
	Rule
	labels []label
}

// Extractor applies a rule table to OCR text
type Extractor struct {
	rules   []compiledRule
	matcher labelMatcher
	log     logrus.FieldLogger
}

// NewExtractor builds an extractor over DefaultRules
func NewExtractor(opts Options, log logrus.FieldLogger) *Extractor {
	return NewExtractorWithRules(DefaultRules(), opts, log)
}

// NewExtractorWithRules builds an extractor over a custom rule table
func NewExtractorWithRules(rules []Rule, opts Options, log logrus.FieldLogger) *Extractor {
	tol := opts.LabelTolerance
	if tol < 0 {
		tol = 0
	}
	e := &Extractor{matcher: labelMatcher{tolerance: tol}, log: log}
	for _, r := range rules {
		e.rules = append(e.rules, compiledRule{Rule: r, labels: compileLabels(r.Labels...)})
	}
	return e
}

// ExtractPages joins per-page OCR text in page order and extracts from it
func (e *Extractor) ExtractPages(pages []string) Result {
	return e.Extract(strings.Join(pages, "\n"))
}

// Extract produces one record from a document's text. It never fails: fields
// that cannot be found are left blank and listed in Result.Gaps.
func (e *Extractor) Extract(text string) Result {
	lines := splitLines(text)

	var res Result
	for _, rule := range e.rules {
		value, how := e.apply(rule, lines)
		if value == "" {
			res.Gaps = append(res.Gaps, rule.Field)
			e.log.WithField("field", rule.Field).Debug("field not found")
			continue
		}
		res.Record.Set(rule.Field, value)
		e.log.WithFields(logrus.Fields{"field": rule.Field, "value": value, "via": how}).Debug("field extracted")
	}

	res.Record.PickOrDelivery = PickOrDelivery(res.Record.PONumber)
	res.Record.Done = ""
	res.Products = parseProducts(lines)
	return res
}

// apply runs one rule. how names the label or "fallback" that produced value.
func (e *Extractor) apply(rule compiledRule, lines []string) (value, how string) {
	if rule.Capture != nil {
		// An exact label anywhere in the text beats an earlier near-miss
		passes := []labelMatcher{{}}
		if e.matcher.tolerance > 0 {
			passes = append(passes, e.matcher)
		}
		for _, m := range passes {
			var ok bool
			if value, how, ok = capture(m, rule, lines); ok {
				return value, how
			}
		}
	}
	if rule.Fallback != nil {
		if v := strings.TrimSpace(rule.Fallback(lines)); v != "" {
			return v, "fallback"
		}
	}
	return "", ""
}

func capture(m labelMatcher, rule compiledRule, lines []string) (value, how string, ok bool) {
	for _, l := range rule.labels {
		for i, line := range lines {
			for _, sp := range m.find(line, l) {
				if v, ok := rule.Capture(line[sp.rest:], lines[i+1:]); ok {
					return strings.TrimSpace(v), l.raw, true
				}
			}
		}
	}
	return "", "", false
}

// PickOrDelivery derives the Pick/Delivery column: orders with a PO are
// picked up by the customer, the rest are delivered.
func PickOrDelivery(poNumber string) string {
	if strings.TrimSpace(poNumber) != "" {
		return Pickup
	}
	return Delivery
}
