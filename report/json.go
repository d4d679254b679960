package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// IOError wraps an export or import failure. The aggregated in-memory document is
// never corrupted by a failed export; callers may retry with a new destination.
type IOError struct {
	Op  string // "export" or "import"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("report %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ExportJSON writes the document to the destination in the versioned interchange
// format.
func ExportJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return &IOError{Op: "export", Err: err}
	}
	return nil
}

// ExportJSONFile writes the document to a file, replacing any existing content.
func ExportJSONFile(doc *Document, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "export", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "export", Err: cerr}
		}
	}()
	return ExportJSON(doc, f)
}

// ImportJSON reads a document back from the interchange format. Round-tripping a
// document through ExportJSON and ImportJSON is lossless.
func ImportJSON(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	if doc.Version < 1 || doc.Version > FormatVersion {
		return nil, &IOError{Op: "import", Err: errors.Errorf("unsupported format version %d", doc.Version)}
	}
	return &doc, nil
}

// ImportJSONFile reads a document from a file.
func ImportJSONFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	defer f.Close()
	return ImportJSON(f)
}
