package models

import "time"

// AuditFields holds the audit timestamp columns shared by tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}
