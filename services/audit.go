package services

import (
	"encoding/json"
	"strings"
	"time"

	"idea-review-api/models"

	"gorm.io/gorm"
)

// Actor identifies the caller of an engine operation, as resolved by the
// auth middleware, plus the request attribution recorded in audit rows.
type Actor struct {
	UserID    int
	RoleID    int
	IPAddress string
	UserAgent string
}

// auditEntry describes one append-only audit row. Values is serialized to
// JSON into new_values.
type auditEntry struct {
	Action       string
	EntityType   string
	EntityID     int
	EntityNumber string
	Values       map[string]interface{}
	Description  string
}

// writeAudit inserts an audit row inside the caller's transaction so the
// trail commits or rolls back together with the change it records.
func writeAudit(tx *gorm.DB, actor Actor, entry auditEntry) error {
	row := models.AuditLog{
		UserID:     actor.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		IPAddress:  actor.IPAddress,
		CreatedAt:  time.Now(),
	}
	if entry.EntityID != 0 {
		id := entry.EntityID
		row.EntityID = &id
	}
	if entry.EntityNumber != "" {
		number := entry.EntityNumber
		row.EntityNumber = &number
	}
	if len(entry.Values) > 0 {
		serialized, err := json.Marshal(entry.Values)
		if err == nil {
			values := string(serialized)
			row.NewValues = &values
		}
	}
	if entry.Description != "" {
		description := entry.Description
		row.Description = &description
	}
	if strings.TrimSpace(actor.UserAgent) != "" {
		ua := actor.UserAgent
		row.UserAgent = &ua
	}

	return tx.Create(&row).Error
}

// isDuplicateKey reports whether err came from a unique-key violation. The
// constraint is the authoritative backstop behind the explicit existence
// checks, so races surface here instead of as duplicate rows.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "Duplicate entry") || strings.Contains(message, "duplicate key")
}
