package state

import "errors"

var (
	// ErrNoSession indicates the operation requires a logged-in user.
	ErrNoSession = errors.New("no active session")
	// ErrMissingField indicates a required signup field is empty.
	ErrMissingField = errors.New("required field missing")
	// ErrIdentityTaken indicates the username or email is already in use.
	ErrIdentityTaken = errors.New("username or email already exists")
	// ErrEmptyCaption indicates a post was attempted without a caption.
	ErrEmptyCaption = errors.New("caption must not be empty")
	// ErrNoPayload indicates a post was attempted without video bytes.
	ErrNoPayload = errors.New("video payload must be provided")
	// ErrUnknownUser indicates the named user does not exist.
	ErrUnknownUser = errors.New("unknown user")
	// ErrSelfTarget indicates an operation aimed at the session user itself.
	ErrSelfTarget = errors.New("operation cannot target the session user")
	// ErrUnknownConversation indicates the conversation id does not exist.
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrEmptyMessage indicates the message text was empty after trimming.
	ErrEmptyMessage = errors.New("message text must not be empty")
)
