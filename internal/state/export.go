package state

import "github.com/reeltalk/reeltalk/internal/models"

// Export assembles a downloadable snapshot of the session user's data:
// public profile fields, authored videos and full conversation history.
// The credential digest never leaves the core.
func (c *Core) Export() (models.ProfileExport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	actor, ok := c.findUserLocked(c.session)
	if !ok {
		return models.ProfileExport{}, ErrNoSession
	}

	export := models.ProfileExport{
		Profile: models.ExportedProfile{
			Username:           actor.Username,
			DisplayName:        actor.DisplayName,
			Avatar:             actor.Avatar,
			Email:              actor.Email,
			Phone:              actor.Phone,
			Followers:          actor.Followers,
			Following:          actor.Following,
			FollowingUsernames: append([]string{}, actor.FollowingUsernames...),
		},
		Videos:        []models.Video{},
		Conversations: []models.ExportConversation{},
	}

	for i := range c.videos {
		if c.videos[i].User.Username == actor.Username {
			video := cloneVideo(c.videos[i])
			video.User.Password = ""
			export.Videos = append(export.Videos, video)
		}
	}

	for i := range c.conversations {
		conv := c.conversations[i]
		messages := make([]models.ChatMessage, len(conv.Messages))
		copy(messages, conv.Messages)
		export.Conversations = append(export.Conversations, models.ExportConversation{
			With:        conv.User.Username,
			DisplayName: conv.User.DisplayName,
			Messages:    messages,
		})
	}

	return export, nil
}
