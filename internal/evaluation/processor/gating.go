package processor

import (
	"github.com/google/uuid"

	"fulfillment-server/internal/store"
)

// conditionGated reports whether condition must wait for an earlier required
// condition to complete. Only required conditions are gated, and only
// required earlier conditions gate: an optional condition neither blocks the
// funnel nor waits for it.
func conditionGated(earlier []store.Condition, condition store.Condition, completed map[uuid.UUID]bool) bool {
	if !condition.IsRequired {
		return false
	}
	for _, prev := range earlier {
		if prev.IsRequired && !completed[prev.ID] {
			return true
		}
	}
	return false
}
