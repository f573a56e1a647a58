package adapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cryptovalleyjobs/jobfeed/internal/extract"
	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

type fakeExtractor struct {
	out    []byte
	err    error
	gotReq extract.Request
}

func (f *fakeExtractor) Extract(_ context.Context, req extract.Request) ([]byte, error) {
	f.gotReq = req
	return f.out, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPageAdapter_FetchJobs(t *testing.T) {
	ex := &fakeExtractor{out: []byte(`{"jobs":[
		{"title":"DeFi Engineer","location":"Zug","job_type":"Full-time","location_type":"onsite","apply_url":"https://valley.example/jobs/1"},
		{"title":"Intern","description":"Summer role"}
	]}`)}
	a := NewPageAdapter("https://valley.example/careers", model.StrategyGeneric, "networkidle", ex, discardLogger())

	jobs, err := a.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if ex.gotReq.URL != "https://valley.example/careers" || ex.gotReq.SchemaName != "job_listings" {
		t.Errorf("unexpected request %+v", ex.gotReq)
	}
	if ex.gotReq.Instruction != JobListingInstruction || ex.gotReq.Schema == nil {
		t.Error("expected job listing instruction and schema")
	}
	if ex.gotReq.WaitUntil != "networkidle" {
		t.Errorf("expected readiness networkidle, got %q", ex.gotReq.WaitUntil)
	}

	j := jobs[0]
	if j.Title != "DeFi Engineer" || j.Location != "Zug" || j.ApplyURL != "https://valley.example/jobs/1" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.JobTypeHint != "Full-time" || j.LocationTypeHint != "onsite" {
		t.Errorf("unexpected hints %q / %q", j.JobTypeHint, j.LocationTypeHint)
	}
	if j.Source != model.StrategyGeneric {
		t.Errorf("expected source generic, got %s", j.Source)
	}
	if jobs[1].ApplyURL != "" || jobs[1].Description != "Summer role" {
		t.Errorf("unexpected second job %+v", jobs[1])
	}
}

func TestPageAdapter_EmptyExtraction(t *testing.T) {
	for name, out := range map[string][]byte{
		"absent":    nil,
		"empty":     []byte(`[]`),
		"malformed": []byte(`{"jobs": [`),
	} {
		t.Run(name, func(t *testing.T) {
			a := NewPageAdapter("https://x.example", model.StrategyLinkedIn, "", &fakeExtractor{out: out}, discardLogger())
			jobs, err := a.FetchJobs(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(jobs) != 0 {
				t.Fatalf("expected 0 jobs, got %d", len(jobs))
			}
		})
	}
}

func TestPageAdapter_EngineFailureIsAbsence(t *testing.T) {
	a := NewPageAdapter("https://x.example", model.StrategyGeneric, "", &fakeExtractor{err: errors.New("browser crashed")}, discardLogger())

	jobs, err := a.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("expected engine failure to be swallowed, got %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestPageAdapter_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewPageAdapter("https://x.example", model.StrategyGeneric, "", &fakeExtractor{err: context.Canceled}, discardLogger())
	if _, err := a.FetchJobs(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPageAdapter_MistypedFieldKeepsOtherListings(t *testing.T) {
	ex := &fakeExtractor{out: []byte(`[
		{"title":"Protocol Engineer","location":"Zug"},
		{"title":"Researcher","location":["Zug","Basel"],"apply_url":123}
	]`)}
	a := NewPageAdapter("https://x.example", model.StrategyGeneric, "", ex, discardLogger())

	jobs, err := a.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Location != "Zug" {
		t.Errorf("expected Zug, got %q", jobs[0].Location)
	}
	if jobs[1].Title != "Researcher" || jobs[1].Location != "" || jobs[1].ApplyURL != "" {
		t.Errorf("expected mistyped fields to be absent, got %+v", jobs[1])
	}
}
