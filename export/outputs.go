package export

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/crossing"
	"github.com/nvr-ai/go-linecount/export/store"
)

// Outputs lists the export destinations of a run. Empty paths are skipped.
type Outputs struct {
	CSV      string `json:"csv" yaml:"csv"`
	Timeline string `json:"timeline" yaml:"timeline"`
	Totals   string `json:"totals" yaml:"totals"`
	HTML     string `json:"html" yaml:"html"`
	Database string `json:"database" yaml:"database"`
}

// RunInfo describes the processed stream.
type RunInfo struct {
	Source    string
	StartedAt time.Time
	Frames    int
}

// Result reports where a run was written.
type Result struct {
	Files []string
	RunID uuid.UUID
}

// WriteAll writes the events and counters to every configured destination.
//
// Arguments:
//   - ctx: Used for the database transaction.
//   - info: The stream the events came from.
//   - events: The events in emission order.
//   - counters: The final counters.
//
// Returns:
//   - Result: The files written and the stored run id, if any.
//   - error: The first failing destination.
func (o Outputs) WriteAll(ctx context.Context, info RunInfo, events []crossing.CrossingEvent, counters crossing.Counters) (Result, error) {
	var res Result

	if o.CSV != "" {
		if err := WriteCSVFile(o.CSV, events); err != nil {
			return res, err
		}
		res.Files = append(res.Files, o.CSV)
	}
	if o.Timeline != "" {
		if err := RenderTimeline(events, o.Timeline); err != nil {
			return res, err
		}
		res.Files = append(res.Files, o.Timeline)
	}
	if o.Totals != "" {
		if err := RenderTotals(counters, o.Totals); err != nil {
			return res, err
		}
		res.Files = append(res.Files, o.Totals)
	}
	if o.HTML != "" {
		if err := renderHTMLFile(o.HTML, events, counters); err != nil {
			return res, err
		}
		res.Files = append(res.Files, o.HTML)
	}
	if o.Database != "" {
		id, err := saveRun(ctx, o.Database, info, events, counters)
		if err != nil {
			return res, err
		}
		res.RunID = id
	}
	return res, nil
}

func renderHTMLFile(path string, events []crossing.CrossingEvent, counters crossing.Counters) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create html report")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close html report")
		}
	}()
	return RenderHTML(f, events, counters)
}

func saveRun(ctx context.Context, path string, info RunInfo, events []crossing.CrossingEvent, counters crossing.Counters) (uuid.UUID, error) {
	s, err := store.Open(path)
	if err != nil {
		return uuid.Nil, err
	}
	defer s.Close()

	return s.SaveRun(ctx, store.Run{
		Source:    info.Source,
		StartedAt: info.StartedAt,
		Frames:    info.Frames,
		Counters:  counters.Snapshot(),
	}, events)
}
