package conversation

// Role tags who spoke a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a follow-up conversation.
type Turn struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	AudioURL  string `json:"audio_url,omitempty"`
}

// Conversation is the append-only transcript attached to one homework record.
type Conversation struct {
	ID        string `json:"id"`
	RecordID  string `json:"homework_id"`
	OwnerID   string `json:"owner_id"`
	Messages  []Turn `json:"messages"`
	CreatedAt int64  `json:"created_at"`
}
