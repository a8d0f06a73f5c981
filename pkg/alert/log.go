package alert

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/trackflag/pkg/logger"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

// LogAlerter writes alerts to a logger at error level.
type LogAlerter struct {
	log *slog.Logger
}

func NewLogAlerter(log *slog.Logger) *LogAlerter {
	if log == nil {
		log = slog.Default()
	}
	return &LogAlerter{log: log.With(logger.Component("alert"))}
}

func (l *LogAlerter) Alert(ctx context.Context, a rollout.Alert) error {
	l.log.ErrorContext(ctx, "rollout alert",
		slog.String("eventCategory", a.Category),
		slog.String("eventLabel", a.Label),
	)
	return nil
}

type multi []rollout.Alerter

// Multi sends each alert to every non-nil alerter and joins their errors.
func Multi(alerters ...rollout.Alerter) rollout.Alerter {
	out := make(multi, 0, len(alerters))
	for _, a := range alerters {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (m multi) Alert(ctx context.Context, a rollout.Alert) error {
	var errs []error
	for _, al := range m {
		if err := al.Alert(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
