package contextkeys

import (
	"context"

	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/types"
)

type messageTypeKey struct{}
type fileInfoKey struct{}
type sessionKey struct{}
type callbackDataKey struct{}
type newUserKey struct{}

type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypePhoto       MessageType = "photo"
	MessageTypeVideo       MessageType = "video"
	MessageTypeDocument    MessageType = "document"
	MessageTypeAudio       MessageType = "audio"
	MessageTypeVoice       MessageType = "voice"
	MessageTypeCommand     MessageType = "command"
	MessageTypeClickButton MessageType = "clickButton"
	MessageTypeUnknown     MessageType = "unknown"
)

func WithMessageType(ctx context.Context, msgType MessageType) context.Context {
	return context.WithValue(ctx, messageTypeKey{}, msgType)
}

func GetMessageType(ctx context.Context) (MessageType, bool) {
	v := ctx.Value(messageTypeKey{})
	if v == nil {
		return MessageTypeUnknown, false
	}
	return v.(MessageType), true
}

// WithFileInfo stashes the single convertible file of the update. Photos are
// normalized to their largest size before reaching here.
func WithFileInfo(ctx context.Context, file *types.PendingFile) context.Context {
	return context.WithValue(ctx, fileInfoKey{}, file)
}

func GetFileInfo(ctx context.Context) (*types.PendingFile, bool) {
	v := ctx.Value(fileInfoKey{})
	if v == nil {
		return nil, false
	}
	return v.(*types.PendingFile), true
}

func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func GetSession(ctx context.Context) (*session.Session, bool) {
	v := ctx.Value(sessionKey{})
	if v == nil {
		return nil, false
	}
	return v.(*session.Session), true
}

func WithCallbackData(ctx context.Context, data string) context.Context {
	return context.WithValue(ctx, callbackDataKey{}, data)
}

func GetCallbackData(ctx context.Context) (string, bool) {
	v := ctx.Value(callbackDataKey{})
	if v == nil {
		return "", false
	}
	return v.(string), true
}

func WithNewUser(ctx context.Context, created bool) context.Context {
	return context.WithValue(ctx, newUserKey{}, created)
}

// IsNewUser reports whether this update is the sender's first contact.
func IsNewUser(ctx context.Context) bool {
	v, _ := ctx.Value(newUserKey{}).(bool)
	return v
}
