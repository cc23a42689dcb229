package tool

import (
	"context"
	"log/slog"

	"discordmcp/internal/domain"
)

// SendMessage is the send_message tool: it validates the invocation
// arguments against the declared schema and forwards the content to the
// configured sender. Validation happens entirely before any network call.
type SendMessage struct {
	sender domain.Sender
	logger *slog.Logger
}

func NewSendMessage(sender domain.Sender, logger *slog.Logger) *SendMessage {
	return &SendMessage{sender: sender, logger: logger}
}

var _ domain.Tool = (*SendMessage)(nil)

func (t *SendMessage) Name() string { return "send_message" }

func (t *SendMessage) Description() string {
	return "Send a message to Discord. Supports text and markdown formats."
}

func (t *SendMessage) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"content": {
			Type:        "string",
			Description: "Message content",
		},
		"msg_type": {
			Type:        "string",
			Description: "Message type, text or markdown",
			Default:     domain.MsgTypeText,
			Enum:        []string{domain.MsgTypeText, domain.MsgTypeMarkdown},
		},
	}, []string{"content"})
}

func (t *SendMessage) Execute(ctx context.Context, args map[string]any) (string, error) {
	raw, ok := args["content"]
	if !ok {
		return "", domain.NewError(domain.ErrInvalidParams, "content is required")
	}
	content, ok := raw.(string)
	if !ok {
		return "", domain.NewError(domain.ErrInvalidParams, "content must be a string")
	}
	if content == "" {
		return "", domain.NewError(domain.ErrInvalidParams, "content must not be empty")
	}

	msgType := domain.MsgTypeText
	if v, present := args["msg_type"]; present {
		s, isString := v.(string)
		if !isString || !domain.ValidMsgType(s) {
			return "", domain.NewError(domain.ErrInvalidParams, "unsupported message type: %s", ArgsString(args, "msg_type"))
		}
		msgType = s
	}

	if err := t.sender.Send(ctx, domain.Message{Content: content, Type: msgType}); err != nil {
		return "", err
	}
	return "Message sent successfully", nil
}
