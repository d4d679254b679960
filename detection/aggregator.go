package detection

import (
	"sort"
	"time"

	"github.com/spatialsuite/clashcore/report"
	"github.com/spatialsuite/clashcore/scene"
)

// aggregator collects the per-time record streams of a run. It is owned by a
// single consumer goroutine; workers never touch it directly.
type aggregator struct {
	records    []report.Record
	duplicates []report.DuplicateRecord
	warnings   []report.Warning

	// duplicateSamples counts, per pair, the samples at which the pair was an
	// exact geometric duplicate. Together with totalSamples it decides at
	// finalize whether the pair is a duplicate for the whole run.
	duplicateSamples map[string]int
	totalSamples     int
}

func (ag *aggregator) addRecord(r report.Record) {
	ag.records = append(ag.records, r)
}

func (ag *aggregator) addDuplicates(ds []report.DuplicateRecord) {
	if ag.duplicateSamples == nil {
		ag.duplicateSamples = make(map[string]int)
	}
	for _, d := range ds {
		ag.duplicateSamples[d.ObjectA+"\x00"+d.ObjectB]++
	}
	ag.duplicates = append(ag.duplicates, ds...)
}

func (ag *aggregator) addWarnings(ws []scene.Warning) {
	for _, w := range ws {
		ag.warnings = append(ag.warnings, report.Warning{Path: w.Path, Reason: w.Reason})
	}
}

// finalize merges, deduplicates, and sorts the collected streams into an immutable
// document. The aggregator remains valid afterwards; export never mutates it.
//
// A pair counts as duplicate geometry only if it was an exact duplicate at every
// sample of the run: those pairs keep their advisory and drop their records. A pair
// that merely coincided at some samples is a real clash there, so it keeps its
// records and the transient advisories are discarded.
func (ag *aggregator) finalize(cfg *Config, queryID string, generatedAt time.Time) *report.Document {
	suppressed := ag.wholeRunDuplicates()

	records := make([]report.Record, 0, len(ag.records))
	for _, r := range ag.records {
		if suppressed[r.Pair()] {
			continue
		}
		records = append(records, r)
	}
	records = dedupeRecords(records)
	sortRecords(records)
	records = mergeIntervals(records, cfg.TimeStep)

	duplicates := make([]report.DuplicateRecord, 0, len(ag.duplicates))
	for _, d := range ag.duplicates {
		if suppressed[d.ObjectA+"\x00"+d.ObjectB] {
			duplicates = append(duplicates, d)
		}
	}

	return &report.Document{
		Version:     report.FormatVersion,
		QueryID:     queryID,
		GeneratedAt: generatedAt,
		Config:      cfg.snapshot(),
		Records:     records,
		Duplicates:  dedupeDuplicates(duplicates),
		Warnings:    dedupeWarnings(ag.warnings),
	}
}

// wholeRunDuplicates returns the pair keys that were exact duplicates at every
// sample of the run.
func (ag *aggregator) wholeRunDuplicates() map[string]bool {
	out := make(map[string]bool, len(ag.duplicateSamples))
	if ag.totalSamples <= 0 {
		return out
	}
	for key, n := range ag.duplicateSamples {
		if n >= ag.totalSamples {
			out[key] = true
		}
	}
	return out
}

// dedupeRecords removes exact repeats, preserving first-seen order.
func dedupeRecords(records []report.Record) []report.Record {
	seen := make(map[report.Record]bool, len(records))
	out := make([]report.Record, 0, len(records))
	for _, r := range records {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// sortRecords orders records deterministically by pair identity, then time, then
// classification.
func sortRecords(records []report.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Pair() != records[j].Pair() {
			return records[i].Pair() < records[j].Pair()
		}
		if records[i].StartTime != records[j].StartTime {
			return records[i].StartTime < records[j].StartTime
		}
		return records[i].Classification < records[j].Classification
	})
}

// mergeIntervals folds consecutive per-time records of the same pair and
// classification into single interval records, the "bake" form a dynamic run
// exports as an animated clash timeline. A gap longer than the sampling step
// closes the interval. The fold is idempotent: merging an already-merged set
// returns the same set. The input must be sorted by pair and time.
func mergeIntervals(records []report.Record, step float64) []report.Record {
	if len(records) == 0 {
		return records
	}
	// Tolerate accumulated floating-point error in sample times.
	gap := step * 1.5
	if gap <= 0 {
		gap = 0
	}

	out := make([]report.Record, 0, len(records))
	cur := records[0]
	for _, r := range records[1:] {
		sameRun := r.Pair() == cur.Pair() &&
			r.Classification == cur.Classification &&
			r.StartTime <= cur.EndTime+gap
		if sameRun {
			if r.EndTime > cur.EndTime {
				cur.EndTime = r.EndTime
			}
			// An interval reports the worst (minimum) separation observed within it.
			if r.Distance < cur.Distance {
				cur.Distance = r.Distance
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// dedupeDuplicates keeps one advisory per object pair, at its earliest time.
func dedupeDuplicates(duplicates []report.DuplicateRecord) []report.DuplicateRecord {
	earliest := make(map[string]report.DuplicateRecord)
	var order []string
	for _, d := range duplicates {
		key := d.ObjectA + "\x00" + d.ObjectB
		if prev, ok := earliest[key]; !ok {
			earliest[key] = d
			order = append(order, key)
		} else if d.Time < prev.Time {
			earliest[key] = d
		}
	}
	sort.Strings(order)
	out := make([]report.DuplicateRecord, 0, len(order))
	for _, key := range order {
		out = append(out, earliest[key])
	}
	return out
}

func dedupeWarnings(warnings []report.Warning) []report.Warning {
	seen := make(map[report.Warning]bool, len(warnings))
	out := make([]report.Warning, 0, len(warnings))
	for _, w := range warnings {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
