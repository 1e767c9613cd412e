package models

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of a conversation. Treat as immutable once created.
// A transcript is an ordered []Turn replayed verbatim as model context.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
