// Package agencykit is the backend for agencies that provision and manage
// client workspaces on a multi-tenant platform.
//
// The root package only holds the error kinds shared by every service. The
// services live under svc/, the HTTP surface under modules/agency and the
// infrastructure adapters under pkg/.
package agencykit
