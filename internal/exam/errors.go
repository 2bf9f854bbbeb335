package exam

import "errors"

// Sentinel errors shared by the store, the services, and the protocol
// layer, which branches on them with errors.Is to pick the wire reply.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
	ErrRoomExists         = errors.New("room already exists")
	ErrRoomNotFound       = errors.New("room not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrRegistryFull       = errors.New("room limit reached")
)
