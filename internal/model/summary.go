package model

import "time"

// SourceResult is the outcome of processing one source.
type SourceResult struct {
	Company    string
	Strategy   string
	Found      int
	New        int
	Duplicates int
	Filtered   int
	Skipped    bool // no fetcher for this source
	Err        error
}

// RunSummary aggregates a full scrape run.
type RunSummary struct {
	RunID      string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []SourceResult
}

// Inserted is the number of new jobs accepted across all sources.
func (s RunSummary) Inserted() int {
	n := 0
	for _, r := range s.Sources {
		n += r.New
	}
	return n
}

// Errors is the number of sources that failed.
func (s RunSummary) Errors() int {
	n := 0
	for _, r := range s.Sources {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Duplicates is the number of candidates skipped as already known.
func (s RunSummary) Duplicates() int {
	n := 0
	for _, r := range s.Sources {
		n += r.Duplicates
	}
	return n
}

// Filtered is the number of candidates rejected by the geographic filter.
func (s RunSummary) Filtered() int {
	n := 0
	for _, r := range s.Sources {
		n += r.Filtered
	}
	return n
}

// Skipped is the number of sources that had no usable fetcher.
func (s RunSummary) Skipped() int {
	n := 0
	for _, r := range s.Sources {
		if r.Skipped {
			n++
		}
	}
	return n
}

// JobReport is the outcome of a backfill or logos run.
type JobReport struct {
	Job        string // "backfill" or "logos"
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Updated    int
	Skipped    int
	Failed     int
}
