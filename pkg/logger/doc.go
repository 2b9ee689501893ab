// Package logger builds *slog.Logger instances with functional options,
// context-driven attributes and a small set of attribute helpers that keep
// key names consistent across services.
//
// New picks a text or JSON handler and wraps it with NewLogHandlerDecorator,
// which runs every registered ContextExtractor when a record is handled.
// This is how request ids and actor ids end up on every line without being
// passed around explicitly.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "agencyd"),
//		logger.WithContextExtractors(requestid.Extractor(), access.Extractor()),
//	)
//	log.InfoContext(ctx, "client provisioned", logger.TenantID(id), logger.AgencyID(agencyID))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
