package binder

import (
	"net/http"
)

// Path binds fields tagged `path:"name"` using extractor, typically
// chi.URLParam. Missing parameters leave the field at its zero value.
//
//	type tenantRequest struct {
//		TenantID string `path:"tenantID"`
//	}
//
//	r.Get("/tenants/{tenantID}", handler.Wrap(h, handler.WithBinders(binder.Path(chi.URLParam))))
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return ErrBinderNotApplicable
		}
		return bindTagged(v, "path", func(name string) []string {
			if val := extractor(r, name); val != "" {
				return []string{val}
			}
			return nil
		}, ErrInvalidPath)
	}
}

// Query binds fields tagged `query:"name"` from the URL query string. Slice
// fields accept repeated parameters and comma-separated values.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindTagged(v, "query", func(name string) []string { return q[name] }, ErrInvalidQuery)
	}
}
