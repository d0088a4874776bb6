package handlers

import (
	"context"
	"io"

	"github.com/reeltalk/reeltalk/internal/models"
	"github.com/reeltalk/reeltalk/internal/state"
)

// SessionService captures the authentication operations required by the
// auth handlers.
type SessionService interface {
	Login(ctx context.Context, identifier, password string) (models.User, bool)
	SignUp(ctx context.Context, params state.SignUpParams) (models.User, error)
	Logout(ctx context.Context)
	CurrentUser() (models.User, bool)
}

// VideoService captures feed and posting operations.
type VideoService interface {
	Feed() []models.Video
	VideoByID(id int64) (models.Video, bool)
	PostVideo(ctx context.Context, caption, audioName string, payload io.Reader) (models.Video, error)
	UpdateVideo(ctx context.Context, video models.Video) bool
	OpenBlob(ctx context.Context, id int64) (io.ReadCloser, error)
	CurrentUser() (models.User, bool)
}

// SocialService captures the user directory and follow operations.
type SocialService interface {
	Users() []models.User
	Follow(ctx context.Context, target string) (models.User, error)
	CurrentUser() (models.User, bool)
}

// ChatService captures conversation operations.
type ChatService interface {
	Conversations() []models.Conversation
	StartConversation(ctx context.Context, username string) (models.Conversation, error)
	SendMessage(ctx context.Context, conversationID, text string) (models.ChatMessage, error)
	CurrentUser() (models.User, bool)
}

// ProfileService captures profile viewing and export.
type ProfileService interface {
	CurrentUser() (models.User, bool)
	Export() (models.ProfileExport, error)
}

// VideoGenerator produces a playable reference for a text prompt.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string) (string, error)
}

// Recommender ranks videos for a viewer.
type Recommender interface {
	ForYouFeed(ctx context.Context, user models.User, videos []models.Video) ([]int64, error)
}
