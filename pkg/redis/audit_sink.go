package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/trackflag/pkg/audit"
)

var (
	_ audit.Sink    = (*AuditSink)(nil)
	_ audit.Trimmer = (*AuditSink)(nil)
)

const auditKey = "audit"

// AuditSink stores audit events as JSON entries of a Redis list, oldest first.
type AuditSink struct {
	db  redis.UniversalClient
	key string
}

// NewAuditSink stores events under the list "<prefix>audit".
func NewAuditSink(client redis.UniversalClient, prefix string) *AuditSink {
	return &AuditSink{db: client, key: prefix + auditKey}
}

func (s *AuditSink) Append(ctx context.Context, event audit.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.db.RPush(ctx, s.key, data).Err()
}

func (s *AuditSink) ReadAll(ctx context.Context) ([]audit.Event, error) {
	raw, err := s.db.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]audit.Event, 0, len(raw))
	for _, item := range raw {
		var e audit.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, errors.Join(ErrCorruptEvent, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *AuditSink) Clear(ctx context.Context) error {
	return s.db.Del(ctx, s.key).Err()
}

// Trim keeps only the newest keep entries.
func (s *AuditSink) Trim(ctx context.Context, keep int) error {
	if keep <= 0 {
		return s.Clear(ctx)
	}
	return s.db.LTrim(ctx, s.key, int64(-keep), -1).Err()
}
