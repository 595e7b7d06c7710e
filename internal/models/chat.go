package models

// ChatRole identifies who authored a chat message
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one entry of a chat transcript
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
