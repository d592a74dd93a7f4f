package widget

// Role marks who a transcript entry belongs to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single transcript entry. Entries are appended, never mutated
// or removed; the transcript lives only in memory.
type Message struct {
	Content string `json:"content"`
	Role    Role   `json:"role"`
}
