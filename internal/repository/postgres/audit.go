package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andrekirst/familyauth/internal/models"
)

type AuditRepo struct {
	DB DBTX
}

const addAuditEntry = `-- name: AddAuditEntry
INSERT INTO audit_log (user_id, email, event_type, success, failure_reason, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, email, event_type, success, failure_reason, ip_address, user_agent, created_at
`

// Append one security event. There is no update or delete on audit_log.
func (r *AuditRepo) Add(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	rows, _ := r.DB.Query(ctx, addAuditEntry,
		entry.UserID, entry.Email, entry.EventType, entry.Success,
		entry.FailureReason, entry.IPAddress, entry.UserAgent,
	)
	saved, err := pgx.CollectOneRow(rows, rowToAuditEntry)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

func rowToAuditEntry(row pgx.CollectableRow) (models.AuditEntry, error) {
	var e models.AuditEntry
	err := row.Scan(
		&e.ID, &e.UserID, &e.Email, &e.EventType, &e.Success,
		&e.FailureReason, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
	)
	return e, err
}
