package alert

// WebhookConfig defines a webhook notification destination.
type WebhookConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Notification is the payload sent to an accountability partner when
// content is blocked. Exactly one of URL or Keyword is set.
type Notification struct {
	Timestamp    string `json:"timestamp"`
	PartnerEmail string `json:"partner_email"`
	AttemptID    string `json:"attempt_id"`
	URL          string `json:"url,omitempty"`
	Keyword      string `json:"keyword,omitempty"`
	Reason       string `json:"reason"`
	Level        string `json:"protection_level"`
}

// Content returns whichever of URL or Keyword is set.
func (n Notification) Content() string {
	if n.URL != "" {
		return n.URL
	}
	return n.Keyword
}
