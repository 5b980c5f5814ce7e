package llm

// Role identifies the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the ordered chat transcript
type Message struct {
	Role      Role
	Content   string
	ToolCalls []*ToolCall
}

// ToolCall is a structured invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON argument mapping
}
