package dispatch

import (
	"context"
)

// giftCardAction is the send_gift_card executor. Gift cards are delivered by
// SMS in the primary flow; the claim itself is delegated to the shared
// fulfiller so the email-flavored reward path stays identical.
type giftCardAction struct {
	fulfiller *rewardFulfiller
}

func (a *giftCardAction) Execute(ctx context.Context, req Request) (Outcome, error) {
	return a.fulfiller.fulfillBySMS(ctx, req)
}
