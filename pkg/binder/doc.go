// Package binder fills request structs from HTTP requests.
//
// Each binder has the signature func(*http.Request, any) error and handles
// one source:
//
//   - JSON decodes the body strictly (json tags).
//   - Path reads router parameters through an extractor (path tags).
//   - Query reads the URL query string (query tags).
//
// Only tagged fields are touched, so a single struct can combine sources:
//
//	type applyRequest struct {
//		TenantID string          `path:"tenantID" json:"-"`
//		Addons   addon.Selection `json:"addons"`
//	}
//
// A binder that does not apply to a request returns ErrBinderNotApplicable
// and the handler moves on to the next one.
package binder
