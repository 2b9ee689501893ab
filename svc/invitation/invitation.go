package invitation

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/agencykit/svc/tenant"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

// Invitation is a pending membership grant. Only the hash of its token is kept.
type Invitation struct {
	ID        string      `bson:"_id" json:"id"`
	TenantID  string      `bson:"tenant_id" json:"tenant_id"`
	Email     string      `bson:"email" json:"email"`
	Name      string      `bson:"name" json:"name"`
	Role      tenant.Role `bson:"role" json:"role"`
	InvitedBy string      `bson:"invited_by" json:"invited_by"`
	TokenHash string      `bson:"token_hash" json:"-"`
	Status    Status      `bson:"status" json:"status"`
	ExpiresAt time.Time   `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// StatusAt reports the status as of now. Pending invitations past their
// expiry read as expired even though nothing sweeps them.
func (i Invitation) StatusAt(now time.Time) Status {
	if i.Status == StatusPending && !now.Before(i.ExpiresAt) {
		return StatusExpired
	}
	return i.Status
}

var ErrDuplicate = errors.New("invitation.duplicate")

// Store persists invitations.
type Store interface {
	Create(ctx context.Context, inv Invitation) error
	ListByTenant(ctx context.Context, tenantID string) ([]Invitation, error)
}
