package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agencykit/pkg/email"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/pkg/token"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

var (
	ErrStoreFailed = errors.New("invitation.store_failed")
	ErrSendFailed  = errors.New("invitation.send_failed")
	ErrTokenFailed = errors.New("invitation.token_failed")
)

// Claims is the signed content of an invitation token.
type Claims struct {
	InvitationID string `json:"iid"`
	TenantID     string `json:"tid"`
	Email        string `json:"em"`
	IssuedAt     int64  `json:"iat"`
	Nonce        string `json:"n"`
}

// Request describes one invitation to issue.
type Request struct {
	TenantID   string
	TenantName string
	Email      string
	Name       string
	Role       tenant.Role
	InvitedBy  string
}

// Issuer creates invitations and e-mails their accept links.
type Issuer struct {
	store   Store
	sender  email.Sender
	secret  string
	baseURL string
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Issuer)

func WithLogger(l *slog.Logger) Option { return func(i *Issuer) { i.log = l } }

func WithClock(now func() time.Time) Option { return func(i *Issuer) { i.now = now } }

// NewIssuer panics on a missing dependency or an empty secret.
func NewIssuer(store Store, sender email.Sender, secret, acceptBaseURL string, ttl time.Duration, opts ...Option) *Issuer {
	if store == nil || sender == nil {
		panic("invitation: store and sender are required")
	}
	if secret == "" {
		panic("invitation: token secret is required")
	}
	i := &Issuer{
		store:   store,
		sender:  sender,
		secret:  secret,
		baseURL: acceptBaseURL,
		ttl:     ttl,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = i.log.With(logger.Component("invitation"))
	return i
}

// Issue persists a pending invitation and sends it. The raw token is
// returned only for the caller's use; it is never stored.
func (i *Issuer) Issue(ctx context.Context, req Request) (Invitation, string, error) {
	now := i.now().UTC()
	nonce, err := token.Nonce(16)
	if err != nil {
		return Invitation{}, "", errors.Join(ErrTokenFailed, err)
	}

	inv := Invitation{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		InvitedBy: req.InvitedBy,
		Status:    StatusPending,
		ExpiresAt: now.Add(i.ttl),
		CreatedAt: now,
	}
	if inv.Role == tenant.RoleUnknown {
		inv.Role = tenant.RoleMember
	}

	raw, err := token.GenerateToken(Claims{
		InvitationID: inv.ID,
		TenantID:     req.TenantID,
		Email:        req.Email,
		IssuedAt:     now.Unix(),
		Nonce:        nonce,
	}, i.secret)
	if err != nil {
		return Invitation{}, "", errors.Join(ErrTokenFailed, err)
	}
	inv.TokenHash = token.Hash(raw)

	if err := i.store.Create(ctx, inv); err != nil {
		return Invitation{}, "", errors.Join(ErrStoreFailed, err)
	}

	body, err := email.Render(ctx, inviteEmail(emailData{
		InviteeName: req.Name,
		TenantName:  req.TenantName,
		Role:        inv.Role.String(),
		AcceptURL:   i.acceptURL(raw),
		ExpiresAt:   inv.ExpiresAt,
	}))
	if err == nil {
		err = i.sender.Send(ctx, email.Message{
			To:       req.Email,
			Subject:  fmt.Sprintf("You're invited to %s", req.TenantName),
			BodyHTML: body,
			Tag:      "client-invite",
		})
	}
	if err != nil {
		i.log.WarnContext(ctx, "invitation stored but not delivered",
			logger.TenantID(req.TenantID), slog.String("invitation_id", inv.ID), logger.Error(err))
		return inv, raw, errors.Join(ErrSendFailed, err)
	}

	return inv, raw, nil
}

// Claims verifies a raw token's signature and returns its content.
func (i *Issuer) Claims(raw string) (Claims, error) {
	return token.ParseToken[Claims](raw, i.secret)
}

func (i *Issuer) acceptURL(raw string) string {
	u, err := url.Parse(i.baseURL)
	if err != nil || i.baseURL == "" {
		return "/invitations/accept?token=" + url.QueryEscape(raw)
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String()
}
