package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	productLineRe  = regexp.MustCompile(`^(\d+)\s*\|\s*(\S+)(.*)$`)
	productStartRe = regexp.MustCompile(`^\d+\s*\|`)

	tableEndMarkers = []string{"COMMENT", "TOTAL ITEMS", "PREPARE"}

	// OCR misreads seen on the item table
	descriptionFixes = strings.NewReplacer("Casstte", "Cassette", "Cassstte", "Cassette")

	descriptionTerms = []struct {
		re   *regexp.Regexp
		term string
	}{
		{regexp.MustCompile(`(?i)\bducted\b`), "DUCTED"},
		{regexp.MustCompile(`(?i)\bcassette\b`), "Cassette"},
		{regexp.MustCompile(`(?i)\boutdoor\b`), "OUTDOOR"},
		{regexp.MustCompile(`(?i)\bindoor\b`), "INDOOR"},
		{regexp.MustCompile(`(?i)\bpanel\b`), "Panel"},
	}
)

// ParseProducts reads the item table: the lines between an ITEM/DESCRIPTION
// header and the first COMMENT, TOTAL ITEMS or PREPARE line. Item lines look
// like "2 | CODE description". When the description is missing or shorter
// than three characters the next non-item line supplies it.
func ParseProducts(text string) []Product {
	return parseProducts(splitLines(text))
}

func parseProducts(lines []string) []Product {
	start, end := -1, len(lines)
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if start < 0 {
			if strings.Contains(upper, "ITEM") && strings.Contains(upper, "DESCRIPTION") {
				start = i + 1
			}
			continue
		}
		if containsAny(upper, tableEndMarkers) {
			end = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	table := lines[start:end]
	var products []Product
	for i, line := range table {
		m := productLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		qty, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		desc := strings.TrimSpace(m[3])
		if len(desc) < 3 && i+1 < len(table) {
			next := strings.TrimSpace(table[i+1])
			if next != "" && !productStartRe.MatchString(next) {
				desc = next
			}
		}

		products = append(products, Product{
			Code:        m[2],
			Description: CleanDescription(desc),
			Quantity:    qty,
		})
	}
	return products
}

// CleanDescription collapses whitespace, repairs known OCR misreads and
// normalises the casing of common product terms.
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}
	desc = strings.Join(strings.Fields(desc), " ")
	desc = descriptionFixes.Replace(desc)
	for _, t := range descriptionTerms {
		desc = t.re.ReplaceAllString(desc, t.term)
	}
	return desc
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
