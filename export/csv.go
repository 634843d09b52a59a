// Package export writes crossing events and counters to files and reports.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/crossing"
)

// CSVHeader is the header row of the event export.
var CSVHeader = []string{"car_id", "timestamp", "state"}

// WriteCSV writes one row per event, in order, after a header row.
//
// Arguments:
//   - w: The destination.
//   - events: The events to write.
//
// Returns:
//   - error: If writing fails.
func WriteCSV(w io.Writer, events []crossing.CrossingEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, e := range events {
		row := []string{strconv.Itoa(e.TrackID), e.FormatTimestamp(), e.Direction.String()}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write event of track %d", e.TrackID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// WriteCSVFile writes the events to path, replacing any existing file.
func WriteCSVFile(path string, events []crossing.CrossingEvent) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close csv file")
		}
	}()
	return WriteCSV(f, events)
}

// ReadCSV parses an event export. Timestamps are read as UTC.
//
// Arguments:
//   - r: The source.
//
// Returns:
//   - []crossing.CrossingEvent: The events in file order.
//   - error: If the header is wrong or a row cannot be parsed.
func ReadCSV(r io.Reader) ([]crossing.CrossingEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	for i, name := range CSVHeader {
		if header[i] != name {
			return nil, errors.Errorf("unexpected csv header %v", header)
		}
	}

	var events []crossing.CrossingEvent
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}

		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: car_id", line)
		}
		ts, err := time.ParseInLocation(crossing.TimestampLayout, row[1], time.UTC)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: timestamp", line)
		}
		dir, err := crossing.ParseDirection(row[2])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: state", line)
		}
		events = append(events, crossing.CrossingEvent{TrackID: id, Timestamp: ts, Direction: dir})
	}
}
