// Package pg manages the PostgreSQL connection pool (pgx/v5) and schema
// migrations (goose/v3).
//
// Connect retries until the database answers a ping. Migrate runs goose
// against an fs.FS so each package can embed and own its schema:
//
//	//go:embed migrations/*.sql
//	var Migrations embed.FS
//
//	if err := pg.Migrate(ctx, pool, cfg, activity.Migrations, "migrations", log); err != nil {
//		return err
//	}
package pg
