// Package pg provides the Postgres backend for the rollout controller on top of
// pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies the goose
// migrations shipped in package db (or a directory named by
// Config.MigrationsPath), and Healthcheck returns a ping probe.
//
// OverrideStore and AuditSink accept any Querier, so they work with a pool, a
// single connection or a transaction:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
//	ctrl := rollout.New(ctx, rolloutCfg, pg.NewOverrideStore(pool), nil, pg.NewAuditSink(pool))
//
// AuditSink implements audit.Trimmer with a single DELETE, so bounding the
// audit log never reads the table back.
package pg
