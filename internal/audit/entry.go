package audit

// Journal event types.
const (
	EventSettingsChanged = "settings_changed"
	EventGateDenied      = "gate_denied"
	EventBlocked         = "blocked"
	EventHistoryCleared  = "history_cleared"
)

// Entry is one line in the hash-chained JSONL journal.
// All fields are plain strings so json.Marshal output is stable for hashing.
type Entry struct {
	Timestamp    string `json:"ts"`
	Event        string `json:"event"`
	Subject      string `json:"subject"`
	Decision     string `json:"decision"`
	Reason       string `json:"reason,omitempty"`
	Level        string `json:"level"`
	SettingsHash string `json:"settings_hash"`
	PrevHash     string `json:"prev_hash"`
}
