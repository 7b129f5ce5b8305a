package llm

// Message represents a simple chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
