package activity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
)

type EventType string

const (
	EventClientCreated EventType = "client_created"
	EventAddonsUpdated EventType = "addons_updated"
)

// Event is an immutable audit record scoped to an agency.
type Event struct {
	ID              string         `json:"id"`
	AgencyTenantID  string         `json:"agency_tenant_id"`
	Type            EventType      `json:"type"`
	SubjectTenantID string         `json:"subject_tenant_id"`
	ActorID         string         `json:"actor_id"`
	Payload         map[string]any `json:"payload,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

var (
	ErrMissingAgency  = errors.New("activity.missing_agency")
	ErrMissingType    = errors.New("activity.missing_type")
	ErrMissingSubject = errors.New("activity.missing_subject")
)

// Storage appends and lists events. There is deliberately no update or delete.
type Storage interface {
	Append(ctx context.Context, e Event) error
	// List returns up to limit of the agency's most recent events, oldest first.
	List(ctx context.Context, agencyTenantID string, limit int) ([]Event, error)
}

// Recorder is the append-only activity trail.
type Recorder struct {
	storage Storage
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Recorder)

func WithLogger(l *slog.Logger) Option { return func(r *Recorder) { r.log = l } }

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(r *Recorder) { r.now = now } }

func NewRecorder(storage Storage, opts ...Option) *Recorder {
	if storage == nil {
		panic("activity: storage is required")
	}
	r := &Recorder{storage: storage, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("activity"))
	return r
}

// Record appends e under agencyTenantID, assigning its id and timestamp.
func (r *Recorder) Record(ctx context.Context, agencyTenantID string, e Event) error {
	switch {
	case agencyTenantID == "":
		return errors.Join(agencykit.ErrInvalidArgument, ErrMissingAgency)
	case e.Type == "":
		return errors.Join(agencykit.ErrInvalidArgument, ErrMissingType)
	case e.SubjectTenantID == "":
		return errors.Join(agencykit.ErrInvalidArgument, ErrMissingSubject)
	}

	e.ID = uuid.NewString()
	e.AgencyTenantID = agencyTenantID
	e.CreatedAt = r.now().UTC()

	if err := r.storage.Append(ctx, e); err != nil {
		return errors.Join(agencykit.ErrInternal, err)
	}
	r.log.DebugContext(ctx, "activity recorded",
		logger.AgencyID(agencyTenantID), logger.Event(string(e.Type)), logger.TenantID(e.SubjectTenantID))
	return nil
}

// List returns the agency's recent events in insertion order. A limit
// outside 1..500 is clamped.
func (r *Recorder) List(ctx context.Context, agencyTenantID string, limit int) ([]Event, error) {
	if agencyTenantID == "" {
		return nil, errors.Join(agencykit.ErrInvalidArgument, ErrMissingAgency)
	}
	switch {
	case limit <= 0:
		limit = 50
	case limit > 500:
		limit = 500
	}
	events, err := r.storage.List(ctx, agencyTenantID, limit)
	if err != nil {
		return nil, errors.Join(agencykit.ErrInternal, err)
	}
	return events, nil
}
