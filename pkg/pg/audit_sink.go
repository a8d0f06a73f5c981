package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/trackflag/pkg/audit"
)

var (
	_ audit.Sink    = (*AuditSink)(nil)
	_ audit.Trimmer = (*AuditSink)(nil)
)

// AuditSink stores audit events in rollout_audit_events, ordered by insertion sequence.
type AuditSink struct {
	db Querier
}

func NewAuditSink(db Querier) *AuditSink {
	return &AuditSink{db: db}
}

const (
	insertEventQuery = `INSERT INTO rollout_audit_events (id, name, phase, session_id, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	selectEventsQuery = `SELECT id, name, phase, session_id, payload, created_at
FROM rollout_audit_events ORDER BY seq ASC`
	clearEventsQuery = `DELETE FROM rollout_audit_events`
	trimEventsQuery  = `DELETE FROM rollout_audit_events
WHERE seq NOT IN (SELECT seq FROM rollout_audit_events ORDER BY seq DESC LIMIT $1)`
)

func (s *AuditSink) Append(ctx context.Context, e audit.Event) error {
	_, err := s.db.Exec(ctx, insertEventQuery, e.ID, e.Name, e.Phase, e.SessionID, e.Payload, e.CreatedAt)
	return err
}

func (s *AuditSink) ReadAll(ctx context.Context) ([]audit.Event, error) {
	rows, err := s.db.Query(ctx, selectEventsQuery)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var e audit.Event
		err := row.Scan(&e.ID, &e.Name, &e.Phase, &e.SessionID, &e.Payload, &e.CreatedAt)
		return e, err
	})
}

func (s *AuditSink) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, clearEventsQuery)
	return err
}

// Trim deletes everything but the newest keep rows.
func (s *AuditSink) Trim(ctx context.Context, keep int) error {
	if keep <= 0 {
		return s.Clear(ctx)
	}
	_, err := s.db.Exec(ctx, trimEventsQuery, keep)
	return err
}
