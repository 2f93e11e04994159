package postgres

import (
	"time"

	"github.com/google/uuid"
)

func nullTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

// validID reports whether id can match a uuid primary key. Malformed ids are
// answered as not found instead of surfacing a cast error from Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
