package models

import "github.com/google/uuid"

// ensureID assigns a v4 id when the caller left it empty, so inserts work the
// same on postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
