package bench

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kart-io/mongosource/pkg/infra/app"
	"github.com/kart-io/mongosource/pkg/infra/pool"
	"github.com/kart-io/mongosource/pkg/utils/json"
)

// Report is the JSON document written at the end of a run.
type Report struct {
	RunID      string    `json:"run_id"`
	Version    string    `json:"version"`
	Source     string    `json:"source"`
	Database   string    `json:"database"`
	Collection string    `json:"collection,omitempty"`
	Mode       Mode      `json:"mode"`
	Workers    int       `json:"workers"`
	StartedAt  time.Time `json:"started_at"`
	ElapsedMs  float64   `json:"elapsed_ms"`

	Summary

	Pool pool.Stats `json:"pool"`
}

func newReport(runID, source string, o *Options, rec *Recorder, stats pool.Stats) *Report {
	return &Report{
		RunID:      runID,
		Version:    app.GetVersion(),
		Source:     source,
		Database:   o.Database,
		Collection: o.Collection,
		Mode:       o.Mode,
		Workers:    o.Workers,
		StartedAt:  rec.started.UTC(),
		ElapsedMs:  ms(rec.Elapsed()),
		Summary:    rec.Summary(),
		Pool:       stats,
	}
}

// Write encodes the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// writeReport writes r to path, or to stdout when path is empty or "-".
func writeReport(r *Report, path string, stdout io.Writer) error {
	if path == "" || path == "-" {
		return r.Write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
