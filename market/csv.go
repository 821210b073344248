package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// LoadCSV reads candles from a CSV file with rows of
//
//	time,open,high,low,close,volume
//
// where time is RFC 3339. A header row is skipped when the first field
// does not parse as a timestamp. Rows are expected in chronological order;
// NewSeries enforces that.
func LoadCSV(path, symbol, interval string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer f.Close()

	candles, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewSeries(symbol, interval, candles)
}

// ReadCSV parses candle rows from r. Split out from LoadCSV so tests can
// feed it a strings.Reader.
func ReadCSV(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var candles []Candle
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("line %d: bad timestamp %q: %w", line, rec[0], err)
		}

		var vals [5]float64
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad value %q: %w", line, rec[i+1], err)
			}
			vals[i] = v
		}

		candles = append(candles, Candle{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return candles, nil
}
