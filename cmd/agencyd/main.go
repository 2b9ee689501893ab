// Command agencyd serves the agency API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/agencykit/modules/agency"
	"github.com/dmitrymomot/agencykit/pkg/config"
	"github.com/dmitrymomot/agencykit/pkg/email"
	"github.com/dmitrymomot/agencykit/pkg/httpserver"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/pkg/mongo"
	"github.com/dmitrymomot/agencykit/pkg/pg"
	"github.com/dmitrymomot/agencykit/pkg/redis"
	"github.com/dmitrymomot/agencykit/pkg/requestid"
	"github.com/dmitrymomot/agencykit/svc/access"
	"github.com/dmitrymomot/agencykit/svc/activity"
	"github.com/dmitrymomot/agencykit/svc/billing"
	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/invitation"
	"github.com/dmitrymomot/agencykit/svc/provisioning"
	"github.com/dmitrymomot/agencykit/svc/quota"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

const serviceName = "agencyd"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("agencyd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithContextExtractors(requestid.Extractor(), access.Extractor(), tenant.Extractor()),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		cat = loaded
		log.InfoContext(ctx, "catalog loaded", slog.String("path", cfg.CatalogPath))
	}

	mdb, err := mongo.NewDatabase(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := mdb.Client().Disconnect(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "mongo disconnect", logger.Error(err))
		}
	}()

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, cfg.PG, activity.Migrations, activity.MigrationsDir, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.WarnContext(ctx, "redis close", logger.Error(err))
		}
	}()

	tenants := tenant.NewMongoStore(mdb)
	invites := invitation.NewMongoStore(mdb)
	if err := errors.Join(tenants.EnsureIndexes(ctx), invites.EnsureIndexes(ctx)); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	sender, err := newSender(cfg.Email, log)
	if err != nil {
		return err
	}
	gateway, err := newGateway(cfg.Paddle, log)
	if err != nil {
		return err
	}

	verifier := access.NewVerifier(tenants, tenants, access.WithLogger(log))
	guard := quota.NewGuard(tenants, cat, quota.NewRedisLocker(rdb), quota.WithLogger(log))
	recorder := activity.NewRecorder(activity.NewPostgresStorage(pool), activity.WithLogger(log))
	issuer := invitation.NewIssuer(invites, sender, cfg.InviteTokenSecret, cfg.InviteBaseURL, cat.InvitationTTL(),
		invitation.WithLogger(log))

	workflow := provisioning.New(provisioning.Deps{
		Auth:        verifier,
		Quota:       guard,
		Tenants:     tenants,
		Projects:    tenants,
		Inviter:     issuer,
		Invitations: invites,
		Activity:    recorder,
		Catalog:     cat,
	}, provisioning.WithLogger(log))
	reconciler := billing.NewReconciler(verifier, tenants, cat, gateway, recorder, billing.WithLogger(log))

	router := agency.Router(agency.RouterOptions{
		Agency:   agency.NewService(verifier, workflow, reconciler, guard, recorder, agency.WithLogger(log)),
		Liveness: httpserver.Liveness(),
		Readiness: httpserver.Readiness(log, 2*time.Second,
			httpserver.Check{Name: "mongo", Ping: mongo.Healthcheck(mdb.Client())},
			httpserver.Check{Name: "postgres", Ping: pg.Healthcheck(pool)},
			httpserver.Check{Name: "redis", Ping: redis.Healthcheck(rdb)},
		),
	})

	srv := httpserver.New(cfg.HTTP, log)
	log.InfoContext(ctx, "starting", slog.String("addr", cfg.HTTP.Addr), slog.String("currency", cat.Currency()))
	return srv.Run(ctx, router)
}

func newSender(cfg email.Config, log *slog.Logger) (email.Sender, error) {
	if cfg.UsePostmark() {
		return email.NewPostmarkSender(cfg)
	}
	log.Warn("postmark not configured, writing emails to disk", slog.String("dir", cfg.DevOutputDir))
	return email.NewDevSender(cfg.DevOutputDir), nil
}

func newGateway(cfg billing.PaddleConfig, log *slog.Logger) (billing.Gateway, error) {
	if cfg.Enabled() {
		gw, err := billing.NewPaddleGateway(cfg)
		if err != nil {
			return nil, err
		}
		return gw, nil
	}
	log.Warn("paddle not configured, subscription updates will fail")
	return billing.UnconfiguredGateway{}, nil
}
