// Package vault stores case, chat and notification records as flat JSON
// collections in a key-value store, partitioned by owning user. JSON field
// names match the layout the browser client persists, so blobs written by
// either side stay interchangeable.
package vault

import "time"

const (
	CollectionCases         = "cases"
	CollectionChats         = "chats"
	CollectionNotifications = "notifications"
)

// Notification categories.
const (
	NotifUrgent  = "urgent"
	NotifInfo    = "info"
	NotifWarning = "warning"
)

// SafetyMetrics is the opaque risk block returned by the AI collaborator.
// Reason is declared by the upstream type model but never populated by the
// prompt contract; it is carried as optional only.
type SafetyMetrics struct {
	RiskScore          int      `json:"riskScore"`
	Confidence         int      `json:"confidence"`
	RepealCheck        string   `json:"repealCheck,omitempty"`
	JurisdictionStatus string   `json:"jurisdictionStatus,omitempty"`
	PenaltyPrediction  string   `json:"penaltyPrediction,omitempty"`
	EvidenceGaps       []string `json:"evidenceGaps,omitempty"`
	Reason             string   `json:"reason,omitempty"`
	Decision           string   `json:"decision"`
}

// Attachment is a user-supplied file carried alongside a chat message.
// Data is base64-encoded content.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

type Message struct {
	ID          string         `json:"id"`
	Role        string         `json:"role"` // user | assistant
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	AgentUsed   string         `json:"agentUsed,omitempty"`
	Safety      *SafetyMetrics `json:"safety,omitempty"`
}

type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CaseID    string    `json:"caseId,omitempty"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	Role      string    `json:"role"`
	IsPinned  bool      `json:"isPinned,omitempty"`
}

type Case struct {
	ID                string   `json:"id"`
	UserID            string   `json:"userId"`
	Title             string   `json:"title"`
	CaseType          string   `json:"caseType"`
	CNR               string   `json:"cnr"`
	Court             string   `json:"court"`
	Hall              string   `json:"hall"`
	Time              string   `json:"time"` // HH:MM, hearing time of day
	Stage             string   `json:"stage"`
	Risk              string   `json:"risk"` // low | medium | high
	NextStep          string   `json:"nextStep"`
	Session           string   `json:"session"` // Morning | Afternoon
	Petitioner        string   `json:"petitioner"`
	Respondent        string   `json:"respondent"`
	Description       string   `json:"description"`
	LastOrderDate     string   `json:"lastOrderDate"`
	NextHearingDate   string   `json:"nextHearingDate"` // YYYY-MM-DD
	RequiredDocuments []string `json:"requiredDocuments"`
}

// HearingAt combines NextHearingDate and Time into an instant. The second
// return is false when either part is missing or unparseable; such cases are
// skipped by the reminder scheduler.
func (c Case) HearingAt(loc *time.Location) (time.Time, bool) {
	if c.NextHearingDate == "" || c.Time == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", c.NextHearingDate+"T"+c.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}
