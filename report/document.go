// Package report defines the portable clash report document and its export and
// archival surfaces. The JSON interchange format is versioned and changes must be
// additive only, so documents exported by older tool versions keep importing.
package report

import (
	"fmt"
	"time"
)

// FormatVersion is the current interchange format version.
const FormatVersion = 1

// Classification labels how a pair's separation distance relates to the configured
// tolerances.
type Classification string

// The record classifications. Pairs farther apart than the clearance tolerance
// produce no record at all, keeping result sets sparse.
const (
	ClassificationClash     Classification = "clash"
	ClassificationClearance Classification = "clearance"
)

// Config is the stable snapshot of the detection configuration that produced a
// document.
type Config struct {
	GroupA             string  `json:"groupA"`
	GroupB             string  `json:"groupB,omitempty"`
	ClashTolerance     float64 `json:"clashTolerance"`
	ClearanceTolerance float64 `json:"clearanceTolerance"`
	Mode               string  `json:"mode"`
	StartTime          float64 `json:"startTime"`
	EndTime            float64 `json:"endTime"`
	TimeStep           float64 `json:"timeStep"`
	Strict             bool    `json:"strict"`
	Name               string  `json:"name,omitempty"`
	Comment            string  `json:"comment,omitempty"`
}

// Record is one clash or clearance finding for an unordered object pair. ObjectA
// sorts before ObjectB. In dynamic mode StartTime and EndTime bound the merged
// interval over which the finding held; in static mode they are equal.
type Record struct {
	ObjectA        string         `json:"objectA"`
	ObjectB        string         `json:"objectB"`
	Classification Classification `json:"classification"`

	// Distance is the minimum signed separation observed over the record's
	// interval; nonpositive values are penetration depths.
	Distance float64 `json:"distance"`

	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Pair returns the record's pair identity in canonical order.
func (r Record) Pair() string {
	return r.ObjectA + "\x00" + r.ObjectB
}

// DuplicateRecord is an advisory that two objects carry identical geometry at an
// identical world transform, the same physical instance. Such pairs are excluded
// from clash evaluation.
type DuplicateRecord struct {
	ObjectA string  `json:"objectA"`
	ObjectB string  `json:"objectB"`
	Time    float64 `json:"time"`
}

// Warning is a non-fatal resolution problem recorded alongside the results.
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Document is an immutable, exportable clash detection result set.
type Document struct {
	Version     int       `json:"version"`
	QueryID     string    `json:"queryId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Config      Config    `json:"config"`

	// Records is sorted by pair identity, then start time.
	Records    []Record          `json:"records"`
	Duplicates []DuplicateRecord `json:"duplicates,omitempty"`
	Warnings   []Warning         `json:"warnings,omitempty"`
}

// Summary returns a one-line description of the document suitable for logging.
func (d *Document) Summary() string {
	clashes, clearances := 0, 0
	for _, r := range d.Records {
		if r.Classification == ClassificationClash {
			clashes++
		} else {
			clearances++
		}
	}
	return fmt.Sprintf("query %s: %d clashes, %d clearances, %d duplicates, %d warnings",
		d.QueryID, clashes, clearances, len(d.Duplicates), len(d.Warnings))
}
