package provisioning

import (
	"encoding/json"

	"github.com/dmitrymomot/agencykit/pkg/statemachine"
)

// State is a provisioning workflow stage.
type State string

const (
	StateAuthorizing    State = "authorizing"
	StateQuotaChecked   State = "quota_checked"
	StateTenantCreated  State = "tenant_created"
	StateProjectSeeded  State = "project_seeded"
	StateInvitesCreated State = "invites_created"
	StateBillingFlagged State = "billing_flagged"
	StateRecorded       State = "recorded"
	StateDone           State = "done"
)

// sequence is the only path through the workflow.
var sequence = []State{
	StateAuthorizing,
	StateQuotaChecked,
	StateTenantCreated,
	StateProjectSeeded,
	StateInvitesCreated,
	StateBillingFlagged,
	StateRecorded,
	StateDone,
}

// newMachine builds a linear machine where the event that enters a state is
// the state itself.
func newMachine() *statemachine.Machine[State, State] {
	opts := make([]statemachine.Option[State, State], 0, len(sequence)-1)
	for i := 1; i < len(sequence); i++ {
		opts = append(opts, statemachine.WithTransition(sequence[i-1], sequence[i], sequence[i]))
	}
	return statemachine.MustNew(StateAuthorizing, opts...)
}

// Outcome tags how a step ended.
type Outcome string

const (
	Completed      Outcome = "completed"
	Skipped        Outcome = "skipped"
	FailedContinue Outcome = "failed_continue"
	FailedAbort    Outcome = "failed_abort"
)

// StepResult is the tagged result of one workflow step.
type StepResult struct {
	Step    State
	Outcome Outcome
	Err     error
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Step    State   `json:"step"`
		Outcome Outcome `json:"outcome"`
		Error   string  `json:"error,omitempty"`
	}{Step: r.Step, Outcome: r.Outcome}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}
