package domain

// Message types accepted by the send_message tool.
const (
	MsgTypeText     = "text"
	MsgTypeMarkdown = "markdown"
)

// ValidMsgType reports whether t is one of the declared message types.
func ValidMsgType(t string) bool {
	return t == MsgTypeText || t == MsgTypeMarkdown
}

// Message is a single outgoing Discord message. Type is informational
// metadata for the caller; Discord webhooks accept raw content only, so it
// is never part of the wire payload.
type Message struct {
	Content string
	Type    string // text | markdown
}

// DeliveryResult describes the outcome of one delivery attempt.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
