package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DefaultEventLimit is used by EventRepository.List when limit <= 0.
const DefaultEventLimit = 50

// Event is one recognized gesture.
type Event struct {
	ID           string    `json:"id"`
	Gesture      string    `json:"gesture"`
	Hands        int       `json:"hands"`
	RecognizedAt time.Time `json:"recognized_at"`
}

// EventRepository is the append-only journal of recognized gestures.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends e. An empty ID is filled with a new UUID and a zero
// RecognizedAt with the current time.
func (r *EventRepository) Record(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecognizedAt.IsZero() {
		e.RecognizedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, gesture, hands, recognized_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Gesture, e.Hands, e.RecognizedAt.UnixNano(),
	)
	return err
}

// List returns up to limit events, newest first.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, hands, recognized_at FROM events
		 ORDER BY recognized_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e := &Event{}
		var nanos int64
		if err := rows.Scan(&e.ID, &e.Gesture, &e.Hands, &nanos); err != nil {
			return nil, err
		}
		e.RecognizedAt = time.Unix(0, nanos).UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByGesture returns how many events each gesture has produced.
func (r *EventRepository) CountByGesture() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT gesture, COUNT(*) FROM events GROUP BY gesture`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var gesture string
		var n int
		if err := rows.Scan(&gesture, &n); err != nil {
			return nil, err
		}
		counts[gesture] = n
	}

	return counts, rows.Err()
}

// DeleteBefore removes events recognized before t and returns how many
// were removed.
func (r *EventRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE recognized_at < ?`, t.UnixNano())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
