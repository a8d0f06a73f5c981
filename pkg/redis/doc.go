// Package redis connects to Redis and provides Redis-backed collaborators for
// the rollout controller.
//
// Connect retries the initial ping according to Config; Healthcheck returns a
// probe for the admin API that also checks the rollout key types. On top of a client the package offers:
//
//   - OverrideStore: rollout overrides in one hash, shared by every replica.
//   - AuditSink: audit events as a JSON list; Trim uses LTRIM so the bounded
//     log never rewrites the whole list.
//   - SessionStore: one session identity per scope, minted with SETNX.
//
// Usage:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	ctrl := rollout.New(ctx, rolloutCfg,
//		redis.NewOverrideStore(client, cfg.KeyPrefix),
//		redis.NewSessionStore(client, cfg.KeyPrefix, "web", cfg.SessionTTL),
//		redis.NewAuditSink(client, cfg.KeyPrefix),
//	)
//
// Errors from this package wrap go-redis errors with errors.Join, so callers
// can match sentinels such as ErrNotReady with errors.Is.
package redis
