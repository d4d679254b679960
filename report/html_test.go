package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestExportHTML(t *testing.T) {
	doc := sampleDocument()

	var buf bytes.Buffer
	test.That(t, ExportHTML(doc, &buf), test.ShouldBeNil)
	page := buf.String()

	test.That(t, page, test.ShouldContainSubstring, "<!DOCTYPE html>")
	test.That(t, page, test.ShouldContainSubstring, doc.QueryID)
	test.That(t, page, test.ShouldContainSubstring, "nightly")
	test.That(t, page, test.ShouldContainSubstring, "pipes vs steel")
	test.That(t, page, test.ShouldContainSubstring, "Records (2)")
	test.That(t, page, test.ShouldContainSubstring, "/world/a")
	test.That(t, page, test.ShouldContainSubstring, "clash")
	test.That(t, page, test.ShouldContainSubstring, "clearance")
	test.That(t, page, test.ShouldContainSubstring, "Duplicate geometry (1)")
	test.That(t, page, test.ShouldContainSubstring, "object no longer exists")
}

func TestExportHTMLOmitsEmptySections(t *testing.T) {
	doc := sampleDocument()
	doc.Duplicates = nil
	doc.Warnings = nil

	var buf bytes.Buffer
	test.That(t, ExportHTML(doc, &buf), test.ShouldBeNil)
	page := buf.String()

	test.That(t, page, test.ShouldNotContainSubstring, "Duplicate geometry")
	test.That(t, page, test.ShouldNotContainSubstring, "Warnings")
}

func TestExportHTMLEscapesPaths(t *testing.T) {
	doc := sampleDocument()
	doc.Records[0].ObjectA = `/world/<script>`

	var buf bytes.Buffer
	test.That(t, ExportHTML(doc, &buf), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldNotContainSubstring, "<script>")
}

func TestExportHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	test.That(t, ExportHTMLFile(sampleDocument(), path), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "Clash Detection Results")
}
