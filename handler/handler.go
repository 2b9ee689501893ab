package handler

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/agencykit/pkg/binder"
)

// HandlerFunc handles a request already bound into R.
//
//	h := handler.HandlerFunc[quoteRequest](func(ctx handler.Context, req quoteRequest) handler.Response {
//		q, err := svc.CalculatePrice(ctx, actorID, req.Addons)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(q)
//	})
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses an HTTP request into a typed value.
type Bind func(r *http.Request, v any) error

// ErrorHandler writes the response for a failed bind, handler or render.
type ErrorHandler func(ctx Context, err error)

type wrapConfig struct {
	binders      []Bind
	errorHandler ErrorHandler
}

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

// WithBinders appends binders, applied in order. Binders returning
// binder.ErrBinderNotApplicable are skipped.
func WithBinders(binders ...Bind) WrapOption {
	return func(c *wrapConfig) {
		c.binders = append(c.binders, binders...)
	}
}

func WithErrorHandler(h ErrorHandler) WrapOption {
	return func(c *wrapConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// Wrap converts a typed HandlerFunc into an http.HandlerFunc.
func Wrap[R any](h HandlerFunc[R], opts ...WrapOption) http.HandlerFunc {
	cfg := &wrapConfig{errorHandler: NewErrorHandler(nil)}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				if errors.Is(err, binder.ErrBinderNotApplicable) {
					continue
				}
				cfg.errorHandler(ctx, errors.Join(ErrBind, err))
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if failed, ok := resp.(errorResponse); ok {
			cfg.errorHandler(ctx, failed.err)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}
