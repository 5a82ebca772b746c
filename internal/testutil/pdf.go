// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WritePDF writes a structurally valid PDF with the given number of blank
// pages to dir/name and returns its path.
func WritePDF(t testing.TB, dir, name string, pages int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildPDF(pages), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteCorruptPDF writes a file with a .pdf name that is not a PDF
func WriteCorruptPDF(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// LetterPage is the page dictionary BuildPDF uses for every page
const LetterPage = "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>"

// BuildPDF returns the bytes of a minimal PDF: catalog, page tree and n
// empty US Letter pages, with a correct cross-reference table.
func BuildPDF(n int) []byte {
	if n < 1 {
		n = 1
	}
	pages := make([]string, n)
	for i := range pages {
		pages[i] = LetterPage
	}
	return BuildPDFWithPages(pages, "")
}

// BuildPDFWithPages builds a PDF from raw page dictionaries. Each must name
// "2 0 R" as its parent. treeEntries is spliced into the page tree node, for
// inherited keys such as "/MediaBox [0 0 595 842]".
func BuildPDFWithPages(pages []string, treeEntries string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d %s>>", kids, len(pages), treeEntries))
	objects = append(objects, pages...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}
