// Package alert delivers rollout alerts to operators.
//
// Webhook posts each rollout.Alert as JSON to an HTTP endpoint, retrying
// transient failures with exponential backoff (cenkalti/backoff) and
// optionally signing the body with HMAC-SHA256. LogAlerter writes alerts to a
// slog.Logger, Multi fans one alert out to several alerters and Async moves
// delivery off the caller's goroutine.
//
//	hook, err := alert.NewWebhook(cfg.AlertWebhookURL, alert.WithSecret(cfg.AlertSecret))
//	if err != nil {
//		return err
//	}
//	ctrl := rollout.New(ctx, rolloutCfg, overrides, sessions, sink,
//		rollout.WithAlerter(alert.Multi(alert.NewLogAlerter(log), hook)),
//	)
//
// Receivers check authenticity with Verify.
package alert
