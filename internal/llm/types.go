package llm

// Role is the sender of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of a chat request.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a single non-streaming chat call. An empty Model
// falls back to the provider's configured model.
type CompletionRequest struct {
	Model    string
	Messages []Message
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
}
