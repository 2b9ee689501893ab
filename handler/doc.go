// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct filled by binders
// (see pkg/binder) and returns a Response. Wrap turns it into an
// http.HandlerFunc:
//
//	r.Put("/tenants/{tenantID}/addons", handler.Wrap(m.applyAddons,
//		handler.WithBinders(binder.Path(chi.URLParam), binder.JSON()),
//		handler.WithErrorHandler(handler.NewErrorHandler(log)),
//	))
//
// Successful responses are written as {"data": ...}. Errors returned with
// Error, and binding failures, go through the ErrorHandler, which maps
// agencykit error kinds onto status codes and writes
// {"error": {"code", "message", "details"}}.
package handler
