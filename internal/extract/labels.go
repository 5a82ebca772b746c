package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xrash/smetrics"
	"golang.org/x/text/unicode/norm"
)

// minFuzzyLen is the shortest label word that may match with edits. Shorter
// words ("PO", "Date", "Plts", "Bill") must match exactly: one edit turns
// them into ordinary words like "Rate" or "Plus".
const minFuzzyLen = 5

// word is an alphanumeric run of a line with its byte offsets
type word struct {
	text       string
	start, end int
}

func splitWords(line string) []word {
	var out []word
	start := -1
	for i, r := range line {
		alnum := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case alnum && start < 0:
			start = i
		case !alnum && start >= 0:
			out = append(out, word{text: line[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, word{text: line[start:], start: start, end: len(line)})
	}
	return out
}

// label is a compiled label variant: its lower-cased words plus the joined
// form, so "Bill To" also matches "BillTo".
type label struct {
	raw    string
	words  []string
	joined string
}

func compileLabel(raw string) label {
	l := label{raw: raw}
	for _, w := range splitWords(raw) {
		l.words = append(l.words, strings.ToLower(w.text))
	}
	if len(l.words) > 1 {
		l.joined = strings.Join(l.words, "")
	}
	return l
}

// labelMatcher finds labels in OCR lines allowing up to tolerance edits per
// label word.
type labelMatcher struct {
	tolerance int
}

// span is one label occurrence: where it starts in the line and where the
// text following it begins.
type span struct {
	start, rest int
}

// find returns every occurrence of l in line, in line order.
func (m labelMatcher) find(line string, l label) []span {
	if len(l.words) == 0 {
		return nil
	}

	ws := splitWords(line)
	var out []span
	for i := range ws {
		if rest, ok := m.matchWords(ws[i:], l.words); ok {
			out = append(out, span{start: ws[i].start, rest: rest})
			continue
		}
		if l.joined != "" {
			if rest, ok := m.matchWords(ws[i:i+1], []string{l.joined}); ok {
				out = append(out, span{start: ws[i].start, rest: rest})
			}
		}
	}
	return out
}

func (m labelMatcher) matchWords(ws []word, labelWords []string) (int, bool) {
	if len(ws) < len(labelWords) {
		return 0, false
	}
	rest := 0
	for k, lw := range labelWords {
		last := k == len(labelWords)-1
		n, ok := m.matchWord(lw, ws[k].text, last)
		if !ok {
			return 0, false
		}
		rest = ws[k].start + n
	}
	return rest, true
}

// matchWord reports whether the line word w matches the label word lw and how
// many bytes of w the label consumed. The final label word may also be a
// prefix of w when the rest of w is digits, as in "INV12345" or "PO98765".
func (m labelMatcher) matchWord(lw, w string, last bool) (int, bool) {
	lower := strings.ToLower(w)
	if lower == lw {
		return len(w), true
	}
	if m.tolerance > 0 && utf8.RuneCountInString(lw) >= minFuzzyLen &&
		smetrics.WagnerFischer(lw, lower, 1, 1, 1) <= m.tolerance {
		return len(w), true
	}
	if last && len(lower) > len(lw) && strings.HasPrefix(lower, lw) && isDigits(lower[len(lw):]) {
		return len(lw), true
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeText folds compatibility characters (ligatures, full-width digits)
// and line endings so the rules see plain lines.
func normalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\t", "  ")
}

func splitLines(text string) []string {
	return strings.Split(normalizeText(text), "\n")
}
