package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(e Event) error {
	_, err := j.db.Exec(`
		INSERT INTO events
		(id, time, type, symbol, side, price, quantity, order_id, signal, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC(), string(e.Type), e.Symbol, e.Side,
		e.Price, e.Quantity, e.OrderID, e.Signal, e.Note,
	)
	return err
}

// EventsSince returns events at or after the cutoff, oldest first. Used
// by the status command to summarize recent activity.
func (j *SQLiteJournal) EventsSince(cutoff time.Time) ([]Event, error) {
	rows, err := j.db.Query(`
		SELECT id, time, type, symbol, side, price, quantity, order_id, signal, note
		FROM events WHERE time >= ? ORDER BY time ASC, id ASC`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &e.Time, &typ, &e.Symbol, &e.Side,
			&e.Price, &e.Quantity, &e.OrderID, &e.Signal, &e.Note); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
