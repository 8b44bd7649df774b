// Package lifecycle decides and applies e-waste item status transitions.
//
// The engine half (Plan, Step.Apply) is pure: given an item's state and a
// requested role it decides whether the move is legal and what the item
// looks like afterwards. Service wires it to the item store and the identity
// directory.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/Shreya9code/ewastetrack/internal/model"
)

// Step is one role-gated move through the lifecycle.
type Step struct {
	Role  string
	From  model.Status
	To    model.Status
	Stage model.Stage
}

// steps is the whole role-gated protocol: vendors pick up, companies complete.
var steps = map[string]Step{
	model.RoleVendor: {
		Role:  model.RoleVendor,
		From:  model.StatusWaitingForPickup,
		To:    model.StatusInTransit,
		Stage: model.StageInTransit,
	},
	model.RoleCompany: {
		Role:  model.RoleCompany,
		From:  model.StatusInTransit,
		To:    model.StatusDone,
		Stage: model.StageCompleted,
	},
}

// StepFor returns the step a role is allowed to perform.
func StepFor(role string) (Step, error) {
	s, ok := steps[role]
	if !ok {
		return Step{}, fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidRole, role, model.RoleVendor, model.RoleCompany)
	}
	return s, nil
}

// Plan decides whether role may move an item that is currently in status.
// It depends only on (status, role).
func Plan(current model.Status, role string) (Step, error) {
	s, err := StepFor(role)
	if err != nil {
		return Step{}, err
	}
	if current != s.From {
		return Step{}, fmt.Errorf("%w: item is %q, %s requires %q", ErrInvalidStatusTransition, current, role, s.From)
	}
	return s, nil
}

// Apply returns the item as it looks after the step, performed by actor at
// now. The input is not modified. Applying a step to an item in the wrong
// status, or whose stage audit is already written, fails.
func (s Step) Apply(item model.EwasteItem, actor, notes string, now time.Time) (model.EwasteItem, error) {
	if item.Status != s.From {
		return item, fmt.Errorf("%w: item is %q, expected %q", ErrInvalidStatusTransition, item.Status, s.From)
	}
	if item.AuditFor(s.Stage).Recorded() {
		return item, fmt.Errorf("%w: %s stage already recorded", ErrInvalidStatusTransition, s.Stage)
	}

	at := now.UTC()
	item.Status = s.To
	item.SetAudit(s.Stage, model.Audit{By: actor, At: &at, Notes: notes})
	item.UpdatedAt = at
	return item, nil
}

// OverrideStage returns the audit stage written when staff set target directly.
func OverrideStage(target model.Status) model.Stage {
	switch target {
	case model.StatusInTransit:
		return model.StageInTransit
	case model.StatusDone:
		return model.StageCompleted
	}
	return model.StageNone
}
