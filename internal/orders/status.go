package orders

import (
	"context"

	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
)

// Action is the single write an advance performs.
type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Step is one edge of the order lifecycle.
type Step struct {
	From   enums.OrderStatus
	To     enums.OrderStatus
	Action Action
}

var transitions = map[enums.OrderStatus]Step{
	enums.OrderStatusIncomplete: {From: enums.OrderStatusIncomplete, To: enums.OrderStatusReady, Action: ActionUpdate},
	enums.OrderStatusReady:      {From: enums.OrderStatusReady, To: enums.OrderStatusDelivered, Action: ActionUpdate},
	enums.OrderStatusDelivered:  {From: enums.OrderStatusDelivered, To: enums.OrderStatusDeleted, Action: ActionDelete},
}

// NextStep looks up the transition out of status. Deleted and unknown values
// have none.
func NextStep(status enums.OrderStatus) (Step, bool) {
	step, ok := transitions[status]
	return step, ok
}

type Outcome string

const (
	OutcomeAdvanced Outcome = "advanced"
	OutcomeDeleted  Outcome = "deleted"
	OutcomeNoOp     Outcome = "noop"
)

type NoOpReason string

const (
	ReasonMissingID         NoOpReason = "missing_id"
	ReasonNotFound          NoOpReason = "not_found"
	ReasonStale             NoOpReason = "stale"
	ReasonUnknownStatus     NoOpReason = "unknown_status"
	ReasonPersistenceFailed NoOpReason = "persistence_failed"
)

// AdvanceInput names the order to move. ExpectedStatus, when set, is the status
// the caller last saw; a mismatch means the tap was already applied.
type AdvanceInput struct {
	OrderID        uuid.UUID         `json:"order_id"`
	ExpectedStatus enums.OrderStatus `json:"expected_status,omitempty"`
}

// AdvanceResult reports what happened. On a no-op the stored status is unchanged.
type AdvanceResult struct {
	OrderID uuid.UUID         `json:"order_id"`
	Outcome Outcome           `json:"outcome"`
	From    enums.OrderStatus `json:"from,omitempty"`
	To      enums.OrderStatus `json:"to,omitempty"`
	Reason  NoOpReason        `json:"reason,omitempty"`
}

// Changed reports whether the write went through.
func (r AdvanceResult) Changed() bool {
	return r.Outcome == OutcomeAdvanced || r.Outcome == OutcomeDeleted
}

// Advance moves one order a single step along Incomplete, Ready, Delivered and
// finally deletes it. It performs one read and at most one write, and never
// returns an error: every failure is reported as a no-op.
func (s *service) Advance(ctx context.Context, input AdvanceInput) AdvanceResult {
	res := AdvanceResult{OrderID: input.OrderID, Outcome: OutcomeNoOp}
	defer func() {
		s.metrics.ObserveTransition(string(res.From), string(res.To), string(res.Outcome))
	}()

	if input.OrderID == uuid.Nil {
		res.Reason = ReasonMissingID
		return res
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			res.Reason = ReasonNotFound
			return res
		}
		s.logg.Error(ctx, "orders.advance.load_failed", err)
		res.Reason = ReasonPersistenceFailed
		return res
	}
	res.From = order.Status

	if input.ExpectedStatus != "" && input.ExpectedStatus != order.Status {
		res.Reason = ReasonStale
		return res
	}

	step, ok := NextStep(order.Status)
	if !ok {
		s.logg.Warn(ctx, "orders.advance.unknown_status")
		res.Reason = ReasonUnknownStatus
		return res
	}

	var applied bool
	switch step.Action {
	case ActionUpdate:
		applied, err = s.repo.UpdateStatus(ctx, order.ID, step.From, step.To)
	case ActionDelete:
		applied, err = s.repo.DeleteIfStatus(ctx, order.ID, step.From)
	}
	if err != nil {
		s.logg.Error(ctx, "orders.advance.write_failed", err)
		res.Reason = ReasonPersistenceFailed
		return res
	}
	if !applied {
		res.Reason = ReasonStale
		return res
	}

	res.To = step.To
	res.Outcome = OutcomeAdvanced
	if step.Action == ActionDelete {
		res.Outcome = OutcomeDeleted
	}
	s.logg.Info(s.logg.WithField(ctx, "to", string(step.To)), "orders.advanced")
	return res
}
