package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/Shreya9code/ewastetrack/internal/metrics"
	"github.com/Shreya9code/ewastetrack/internal/model"
)

// ItemStore is the persistence the lifecycle needs. Every mutating method is a
// conditional update that reports false when the item was not in the
// expected state.
type ItemStore interface {
	GetItem(ctx context.Context, id string) (*model.EwasteItem, error)
	GetItemBySerial(ctx context.Context, serial string) (*model.EwasteItem, error)
	AdvanceItem(ctx context.Context, id string, from, to model.Status, stage model.Stage, a model.Audit) (bool, error)
	RecordAcceptance(ctx context.Context, id string, a model.Audit) (bool, error)
	ForceItemStatus(ctx context.Context, id string, target model.Status, stage model.Stage, a model.Audit) (bool, error)
}

// Directory resolves role credentials to identities. A miss is nil, nil.
type Directory interface {
	ResolveCredential(ctx context.Context, role, credential string) (*model.Identity, error)
}

// Caller is the authenticated party behind a request. The zero value skips
// the caller binding check.
type Caller struct {
	AccountID string
	Staff     bool
}

// bound reports whether identity may be used by the caller.
func (c Caller) bound(id *model.Identity) bool {
	return c.AccountID == "" || c.Staff || c.AccountID == id.ExternalAccountID
}

// TransitionRequest asks to advance the item identified by Serial.
type TransitionRequest struct {
	Serial         string
	Role           string
	LicenseNo      string
	RegistrationNo string
	Notes          string
	Caller         Caller
}

// Credential returns the credential field that matches the requested role.
func (r TransitionRequest) Credential() string {
	switch r.Role {
	case model.RoleVendor:
		return r.LicenseNo
	case model.RoleCompany:
		return r.RegistrationNo
	}
	return ""
}

// TransitionResult describes a successful transition.
type TransitionResult struct {
	Item  *model.EwasteItem
	Actor *model.Identity
	Step  Step
}

// Service runs the transition protocol against a store and a directory.
type Service struct {
	Items     ItemStore
	Directory Directory
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AttemptTransition advances an item by one role-gated step. Preconditions
// are checked in a fixed order and the first failure is returned; nothing is
// written unless all of them pass. The final write is conditional on the
// item still being in the predecessor status, so of two concurrent requests
// for the same step only one can succeed.
func (s *Service) AttemptTransition(ctx context.Context, req TransitionRequest) (res *TransitionResult, err error) {
	defer func() { s.Metrics.IncTransition(roleLabel(req.Role), Outcome(err)) }()

	item, err := s.Items.GetItemBySerial(ctx, req.Serial)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, req.Serial)
	}

	if _, err := StepFor(req.Role); err != nil {
		return nil, err
	}

	credential := req.Credential()
	if credential == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, credentialField(req.Role))
	}

	step, err := Plan(item.Status, req.Role)
	if err != nil {
		return nil, err
	}

	actor, err := s.Directory.ResolveCredential(ctx, req.Role, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: no %s with that %s", ErrCredentialNotFound, req.Role, credentialField(req.Role))
	}
	if !req.Caller.bound(actor) {
		return nil, ErrCredentialMismatch
	}

	next, err := step.Apply(*item, actor.ExternalAccountID, req.Notes, s.now())
	if err != nil {
		return nil, err
	}

	ok, err := s.Items.AdvanceItem(ctx, item.ID, step.From, step.To, step.Stage, next.AuditFor(step.Stage))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: item changed concurrently", ErrInvalidStatusTransition)
	}

	return &TransitionResult{Item: &next, Actor: actor, Step: step}, nil
}

// AcceptRequest records that a vendor has taken an item on.
type AcceptRequest struct {
	ItemID    string
	LicenseNo string
	Notes     string
	Caller    Caller
}

// Accept writes the vendor acceptance audit for an item still waiting for
// pickup. The status does not change, and an item can be accepted once.
func (s *Service) Accept(ctx context.Context, req AcceptRequest) (*TransitionResult, error) {
	item, err := s.Items.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, req.ItemID)
	}
	if req.LicenseNo == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, credentialField(model.RoleVendor))
	}
	if item.Status != model.StatusWaitingForPickup {
		return nil, fmt.Errorf("%w: item is %q, acceptance requires %q", ErrInvalidStatusTransition, item.Status, model.StatusWaitingForPickup)
	}
	if item.AcceptedAudit().Recorded() {
		return nil, ErrAlreadyAccepted
	}

	actor, err := s.Directory.ResolveCredential(ctx, model.RoleVendor, req.LicenseNo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: no vendor with that %s", ErrCredentialNotFound, credentialField(model.RoleVendor))
	}
	if !req.Caller.bound(actor) {
		return nil, ErrCredentialMismatch
	}

	at := s.now().UTC()
	audit := model.Audit{By: actor.ExternalAccountID, At: &at, Notes: req.Notes}
	ok, err := s.Items.RecordAcceptance(ctx, item.ID, audit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: item changed concurrently", ErrAlreadyAccepted)
	}

	item.SetAudit(model.StageAccepted, audit)
	item.UpdatedAt = at
	return &TransitionResult{Item: item, Actor: actor}, nil
}

// OverrideRequest is an administrative status set outside the role-gated
// protocol.
type OverrideRequest struct {
	ItemID string
	Target model.Status
	Actor  string
	Notes  string
}

// ForceStatus sets an item's status directly. It still refuses to move an
// item backwards or to its current status.
func (s *Service) ForceStatus(ctx context.Context, req OverrideRequest) (item *model.EwasteItem, err error) {
	defer func() { s.Metrics.IncStatusOverride(string(req.Target), Outcome(err)) }()

	if !req.Target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Target)
	}

	item, err = s.Items.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, req.ItemID)
	}
	if !item.Status.Before(req.Target) {
		return nil, fmt.Errorf("%w: item is %q, cannot set %q", ErrInvalidStatusTransition, item.Status, req.Target)
	}

	at := s.now().UTC()
	ok, err := s.Items.ForceItemStatus(ctx, item.ID, req.Target, OverrideStage(req.Target),
		model.Audit{By: req.Actor, At: &at, Notes: req.Notes})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: item changed concurrently", ErrInvalidStatusTransition)
	}

	item, err = s.Items.GetItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return item, nil
}

// roleLabel keeps client-supplied roles out of metric label values.
func roleLabel(role string) string {
	if _, ok := steps[role]; ok {
		return role
	}
	return "other"
}

func credentialField(role string) string {
	switch role {
	case model.RoleVendor:
		return "licenseNo"
	case model.RoleCompany:
		return "registrationNo"
	}
	return "credential"
}
