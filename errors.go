package agencykit

import (
	"errors"
	"fmt"
)

// Error kinds shared by every service. Packages wrap them with errors.Join or
// fmt.Errorf("%w") so callers can classify failures with errors.Is.
var (
	ErrUnauthenticated   = errors.New("agencykit.unauthenticated")
	ErrPermissionDenied  = errors.New("agencykit.permission_denied")
	ErrInvalidArgument   = errors.New("agencykit.invalid_argument")
	ErrNotFound          = errors.New("agencykit.not_found")
	ErrResourceExhausted = errors.New("agencykit.resource_exhausted")
	ErrInternal          = errors.New("agencykit.internal")
)

// Kind is the classification of an error returned by an exposed operation.
type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindPermissionDenied  Kind = "permission_denied"
	KindInvalidArgument   Kind = "invalid_argument"
	KindNotFound          Kind = "not_found"
	KindResourceExhausted Kind = "resource_exhausted"
	KindInternal          Kind = "internal"
)

// KindOf classifies err. Anything that does not wrap a known sentinel is internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrResourceExhausted):
		return KindResourceExhausted
	default:
		return KindInternal
	}
}

// QuotaError reports a rejected admission together with the numbers
// the caller needs to explain it.
type QuotaError struct {
	Resource string
	Current  int64
	Limit    int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d of %d used", e.Resource, e.Current, e.Limit)
}

// Is makes a QuotaError match ErrResourceExhausted.
func (e *QuotaError) Is(target error) bool {
	return target == ErrResourceExhausted
}
