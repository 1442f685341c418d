package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, n Notification) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(n)
	case "pagerduty":
		return formatPagerDuty(n)
	default:
		return formatGeneric(n)
	}
}

func formatGeneric(n Notification) ([]byte, error) {
	return json.Marshal(n)
}

func formatSlack(n Notification) ([]byte, error) {
	kind := "URL"
	if n.URL == "" {
		kind = "Keyword"
	}

	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": "contentguard: content blocked",
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*%s:* %s", kind, n.Content())},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Level:* %s", n.Level)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Partner:* %s", n.PartnerEmail)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", n.Reason)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(n Notification) ([]byte, error) {
	severity := "warning"
	if n.Level == "strict" {
		severity = "error"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("contentguard blocked: %s", n.Content()),
			"severity": severity,
			"source":   "contentguard",
			"custom_details": map[string]any{
				"partner":    n.PartnerEmail,
				"attempt_id": n.AttemptID,
				"level":      n.Level,
				"reason":     n.Reason,
			},
		},
	}
	return json.Marshal(payload)
}
