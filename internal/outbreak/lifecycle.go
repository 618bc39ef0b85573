// Package outbreak implements the outbreak lifecycle state machine:
// watch -> active -> resolved, with a timestamped audit trail on every
// transition. Transitions are pure: the caller supplies the timestamp, so
// results are deterministic and testable without wall-clock reads.
package outbreak

import (
	"time"

	"github.com/carewatch/stewardship/pkg/types"
)

// Transition moves an outbreak to the target state, stamping the supplied
// timestamp into the audit history. Transitioning to resolved also stamps
// ResolvedAt. Resolved is terminal: transitions away from it return an error
// and leave the outbreak unchanged.
func Transition(o *types.Outbreak, target types.OutbreakStatus, ts time.Time) (*types.Outbreak, error) {
	if o == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "outbreak is nil", nil)
	}
	if !target.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown outbreak status: "+string(target), nil)
	}
	if o.Status == types.OutbreakStatusResolved {
		return nil, types.NewConflictError(types.ErrCodeTerminalState,
			"outbreak is resolved; resolved is a terminal state", map[string]interface{}{
				"outbreak_id": o.ID,
				"target":      string(target),
			})
	}
	if target == o.Status {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"outbreak already in state "+string(target), nil)
	}

	updated := *o
	updated.History = append(append([]types.OutbreakTransition{}, o.History...), types.OutbreakTransition{
		From:      o.Status,
		To:        target,
		Timestamp: ts,
	})
	updated.Status = target

	if target == types.OutbreakStatusResolved {
		resolvedAt := ts
		updated.ResolvedAt = &resolvedAt
	}

	return &updated, nil
}
