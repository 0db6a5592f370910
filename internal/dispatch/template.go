package dispatch

import (
	"fmt"
	"strings"

	"fulfillment-server/internal/store"
)

const defaultRewardTemplate = "Hi {{first_name}}, your {{brand}} gift card is here! " +
	"Redeem {{denomination}} with code {{code}}."

const defaultMessageTemplate = "Hi {{first_name}}, thanks for participating in {{campaign_name}}!"

// renderRewardMessage substitutes claim results into the condition's message
// template, falling back to a stock template when none is configured.
// Unknown placeholders are left as-is.
func renderRewardMessage(template *string, recipient store.Recipient, campaign store.Campaign, result store.ClaimResult) string {
	text := defaultRewardTemplate
	if template != nil && *template != "" {
		text = *template
	}

	replacer := strings.NewReplacer(
		"{{code}}", result.Code,
		"{{denomination}}", formatDenomination(result.DenominationCents),
		"{{brand}}", result.BrandName,
		"{{first_name}}", recipient.FirstName,
		"{{last_name}}", recipient.LastName,
		"{{campaign_name}}", campaign.Name,
	)
	return replacer.Replace(text)
}

// renderMessage substitutes recipient and campaign fields into a plain
// notification template.
func renderMessage(template *string, recipient store.Recipient, campaign store.Campaign) string {
	text := defaultMessageTemplate
	if template != nil && *template != "" {
		text = *template
	}

	replacer := strings.NewReplacer(
		"{{first_name}}", recipient.FirstName,
		"{{last_name}}", recipient.LastName,
		"{{campaign_name}}", campaign.Name,
	)
	return replacer.Replace(text)
}

func formatDenomination(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
