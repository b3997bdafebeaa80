package collab

import (
	"golang.org/x/time/rate"

	"github.com/drschille/CRDT-Server/internal/models"
)

// Token-bucket parameters per connection. Costs are scaled by four so the
// quarter-cost sync frames stay integral: a domain action costs 4 scaled
// tokens (1 full token), a sync frame costs 1 (0.25).
const (
	bucketCapacity  = 40
	refillPerSecond = 20
	costScale       = 4

	costAction = 1 * costScale
	costSync   = 1
)

func newFrameLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(refillPerSecond*costScale), bucketCapacity*costScale)
}

// frameCost returns the scaled token cost of an inbound frame type.
// Subscription management and snapshot requests are free.
func frameCost(msgType string) int {
	switch msgType {
	case models.MsgTypeRegistryAction, models.MsgTypeListAction, models.MsgTypeBulletinAction:
		return costAction
	case models.MsgTypeSync:
		return costSync
	}
	return 0
}
