package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/reeltalk/reeltalk/internal/kvstore"
	"github.com/reeltalk/reeltalk/internal/logging"
	"github.com/reeltalk/reeltalk/internal/models"
	"github.com/reeltalk/reeltalk/internal/storage"
)

// Option customizes core construction.
type Option func(*Core)

// WithNow overrides the time source. Used by tests to make video ids
// and message timestamps deterministic.
func WithNow(now func() time.Time) Option {
	return func(c *Core) {
		if now != nil {
			c.now = now
		}
	}
}

// Rehydrate transforms the durable snapshots into a consistent
// in-memory graph and returns the ready application core. This is the
// single initialization barrier: nothing consumes the core before it
// returns.
//
// A failure in any phase degrades that one collection to its default
// and continues; boot never aborts on corrupt or missing snapshots.
func Rehydrate(ctx context.Context, kv kvstore.Store, blobs storage.BlobStore, logger *slog.Logger, opts ...Option) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, span := logging.StartSpan(ctx, "rehydrate")
	defer span.End()

	c := &Core{
		blobs:  blobs,
		writer: newSnapshotWriter(kv, logger),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.users = loadUsers(ctx, kv, logger)
	c.videos = loadVideos(ctx, kv, blobs, logger, c.users)
	c.conversations = loadConversations(ctx, kv, logger, c.users)
	c.session = loadSession(ctx, kv, logger, c.users)

	for i := range c.videos {
		if c.videos[i].ID > c.lastVideoID {
			c.lastVideoID = c.videos[i].ID
		}
	}

	return c, nil
}

// loadUsers returns the stored user table, synthesizing and persisting
// the demo seed set when the store is genuinely empty.
func loadUsers(ctx context.Context, kv kvstore.Store, logger *slog.Logger) []models.User {
	ctx, span := logging.StartSpan(ctx, "rehydrate.users")
	defer span.End()

	var users []models.User
	if err := kv.Load(ctx, kvstore.KeyUsers, &users); err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("load users snapshot", "error", err)
		}
	}

	if len(users) == 0 {
		users = seedUsers()
		logger.Info("seeded demo accounts", "count", len(users))
		if err := kv.Save(ctx, kvstore.KeyUsers, users); err != nil {
			logger.Warn("persist seeded users", "error", err)
		}
	}

	for i := range users {
		if users[i].FollowingUsernames == nil {
			users[i].FollowingUsernames = []string{}
		}
	}

	return users
}

// loadVideos returns the stored videos with blob references resolved to
// transient playable handles and author snapshots reconciled against
// the canonical user table. Local videos whose payload is gone are
// silently dropped: the bytes are unrecoverable and a broken entry
// must never surface.
func loadVideos(ctx context.Context, kv kvstore.Store, blobs storage.BlobStore, logger *slog.Logger, users []models.User) []models.Video {
	ctx, span := logging.StartSpan(ctx, "rehydrate.videos")
	defer span.End()

	var stored []models.Video
	if err := kv.Load(ctx, kvstore.KeyVideos, &stored); err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("load videos snapshot", "error", err)
		}
		stored = seedVideos(users)
		logger.Info("seeded demo videos", "count", len(stored))
		if err := kv.Save(ctx, kvstore.KeyVideos, stored); err != nil {
			logger.Warn("persist seeded videos", "error", err)
		}
	}

	videos := make([]models.Video, 0, len(stored))
	for _, video := range stored {
		if video.IsLocal {
			if !storage.Exists(ctx, blobs, video.ID) {
				logger.Info("dropping video with missing payload", "videoId", video.ID)
				continue
			}
			video.Src = MediaPath(video.ID)
		}
		video.User = reconcileSnapshot(video.User, users)
		videos = append(videos, video)
	}

	return videos
}

func loadConversations(ctx context.Context, kv kvstore.Store, logger *slog.Logger, users []models.User) []models.Conversation {
	ctx, span := logging.StartSpan(ctx, "rehydrate.conversations")
	defer span.End()

	var conversations []models.Conversation
	if err := kv.Load(ctx, kvstore.KeyConversations, &conversations); err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("load conversations snapshot", "error", err)
		}
		return nil
	}

	for i := range conversations {
		conversations[i].User = reconcileSnapshot(conversations[i].User, users)
		if conversations[i].Messages == nil {
			conversations[i].Messages = []models.ChatMessage{}
		}
	}

	return conversations
}

// loadSession resolves the durable session pointer to a canonical user,
// clearing it when the username no longer matches anyone.
func loadSession(ctx context.Context, kv kvstore.Store, logger *slog.Logger, users []models.User) string {
	ctx, span := logging.StartSpan(ctx, "rehydrate.session")
	defer span.End()

	var username string
	if err := kv.Load(ctx, kvstore.KeySession, &username); err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("load session snapshot", "error", err)
		}
		return ""
	}

	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return users[i].Username
		}
	}

	if username != "" {
		logger.Warn("session user no longer exists, clearing session", "username", username)
	}
	return ""
}

// reconcileSnapshot replaces a denormalized user snapshot with the
// canonical record when a match by username exists. The snapshot is
// kept as a display fallback when the user is gone.
func reconcileSnapshot(snapshot models.User, users []models.User) models.User {
	for i := range users {
		if strings.EqualFold(users[i].Username, snapshot.Username) {
			return cloneUser(users[i])
		}
	}
	return snapshot
}
