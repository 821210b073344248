package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"id", "time", "type", "symbol", "side",
	"price", "quantity", "order_id", "signal", "note",
}

// CSVJournal appends events to a single CSV file. The file is opened in
// append mode so restarts keep extending the same log; the header is only
// written when the file starts empty.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) Record(e Event) error {
	err := j.w.Write([]string{
		e.ID,
		e.Time.UTC().Format(time.RFC3339),
		string(e.Type),
		e.Symbol,
		e.Side,
		f(e.Price),
		f(e.Quantity),
		e.OrderID,
		e.Signal,
		e.Note,
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
