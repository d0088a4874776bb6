// Package state holds the in-memory authoritative application
// collections (users, videos, conversations, current session) and the
// mutation operations the presentation layer invokes. Every mutation
// updates memory first and then persists the affected collection as a
// full snapshot, best effort: a failed write is logged and never rolls
// back the in-memory change.
package state

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reeltalk/reeltalk/internal/auth"
	"github.com/reeltalk/reeltalk/internal/kvstore"
	"github.com/reeltalk/reeltalk/internal/models"
	"github.com/reeltalk/reeltalk/internal/storage"
)

// Core owns the four application collections. All access goes through
// its methods; each operation is a single critical section, so no
// partially applied mutation is ever observable.
type Core struct {
	mu            sync.Mutex
	users         []models.User
	videos        []models.Video
	conversations []models.Conversation
	session       string

	blobs       storage.BlobStore
	writer      *snapshotWriter
	logger      *slog.Logger
	now         func() time.Time
	lastVideoID int64
}

// SignUpParams carries the fields collected by the signup form.
type SignUpParams struct {
	DisplayName string
	Username    string
	Email       string
	Phone       string
	Password    string
}

// MediaPath returns the transient playable handle for a locally stored
// video. Handles are reconstructed at load time and never persisted.
func MediaPath(id int64) string {
	return fmt.Sprintf("/api/v1/media/%d", id)
}

// Login authenticates by case-insensitive username or email and digest
// comparison. On success the session is set and persisted; on failure
// no state changes.
func (c *Core) Login(ctx context.Context, identifier, password string) (models.User, bool) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return models.User{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.users {
		u := &c.users[i]
		if strings.ToLower(u.Username) != identifier &&
			(u.Email == "" || strings.ToLower(u.Email) != identifier) {
			continue
		}
		if !auth.VerifyPassword(u.Password, password) {
			return models.User{}, false
		}

		c.session = u.Username
		c.persistSessionLocked()
		return cloneUser(*u), true
	}

	return models.User{}, false
}

// SignUp creates a new account with zero social counts and logs it in.
func (c *Core) SignUp(ctx context.Context, p SignUpParams) (models.User, error) {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)

	if p.DisplayName == "" || p.Username == "" || p.Email == "" || p.Password == "" {
		return models.User{}, ErrMissingField
	}
	if err := auth.ValidatePassword(p.Password); err != nil {
		return models.User{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.users {
		u := &c.users[i]
		if strings.EqualFold(u.Username, p.Username) {
			return models.User{}, ErrIdentityTaken
		}
		if u.Email != "" && strings.EqualFold(u.Email, p.Email) {
			return models.User{}, ErrIdentityTaken
		}
	}

	user := models.User{
		Username:           p.Username,
		DisplayName:        p.DisplayName,
		Avatar:             fmt.Sprintf("https://picsum.photos/seed/%s/100/100", p.Username),
		Email:              p.Email,
		Phone:              p.Phone,
		Password:           auth.HashPassword(p.Password),
		FollowingUsernames: []string{},
	}

	c.users = append(c.users, user)
	c.session = user.Username
	c.persistUsersLocked()
	c.persistSessionLocked()

	return cloneUser(user), nil
}

// Logout clears the session and removes its durable pointer.
func (c *Core) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = ""
	c.persistSessionLocked()
}

// CurrentUser resolves the session to its canonical user record.
func (c *Core) CurrentUser() (models.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.findUserLocked(c.session)
	if !ok {
		return models.User{}, false
	}
	return cloneUser(*u), true
}

// Users returns a copy of the user directory.
func (c *Core) Users() []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneUsers(c.users)
}

// Feed returns the videos in display order, newest first.
func (c *Core) Feed() []models.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneVideos(c.videos)
}

// VideoByID returns the video with the given id.
func (c *Core) VideoByID(id int64) (models.Video, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.videos {
		if c.videos[i].ID == id {
			return cloneVideo(c.videos[i]), true
		}
	}
	return models.Video{}, false
}

// PostVideo stores the payload in the blob store and prepends a new
// video with zeroed counters. The blob write happens first: no video
// record is ever created without its backing bytes.
func (c *Core) PostVideo(ctx context.Context, caption, audioName string, payload io.Reader) (models.Video, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return models.Video{}, ErrEmptyCaption
	}
	if payload == nil {
		return models.Video{}, ErrNoPayload
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	actor, ok := c.findUserLocked(c.session)
	if !ok {
		return models.Video{}, ErrNoSession
	}

	id := c.nextVideoIDLocked()
	if err := c.blobs.Put(ctx, id, payload); err != nil {
		return models.Video{}, fmt.Errorf("store video payload: %w", err)
	}

	if strings.TrimSpace(audioName) == "" {
		audioName = "Original Audio - " + actor.DisplayName
	}

	video := models.Video{
		ID:        id,
		Src:       MediaPath(id),
		User:      cloneUser(*actor),
		Caption:   caption,
		AudioName: audioName,
		IsLocal:   true,
	}

	c.videos = append([]models.Video{video}, c.videos...)
	c.persistVideosLocked()

	return cloneVideo(video), nil
}

// UpdateVideo replaces the record matching the video's id. Unknown ids
// are a no-op and report false.
func (c *Core) UpdateVideo(ctx context.Context, updated models.Video) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.videos {
		if c.videos[i].ID != updated.ID {
			continue
		}
		c.videos[i] = cloneVideo(updated)
		c.persistVideosLocked()
		return true
	}
	return false
}

// Follow makes the session user follow target, incrementing both
// counters. Following yourself or someone already followed is a no-op,
// not an error; repeated calls never increment twice.
func (c *Core) Follow(ctx context.Context, target string) (models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	actor, ok := c.findUserLocked(c.session)
	if !ok {
		return models.User{}, ErrNoSession
	}

	if strings.EqualFold(actor.Username, target) {
		return cloneUser(*actor), nil
	}

	targetUser, ok := c.findUserLocked(target)
	if !ok {
		return models.User{}, ErrUnknownUser
	}
	if actor.Follows(targetUser.Username) {
		return cloneUser(*actor), nil
	}

	targetUser.Followers++
	actor.FollowingUsernames = append(actor.FollowingUsernames, targetUser.Username)
	actor.Following = len(actor.FollowingUsernames)

	c.persistUsersLocked()

	return cloneUser(*actor), nil
}

// Conversations returns the conversation list in display order.
func (c *Core) Conversations() []models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneConversations(c.conversations)
}

// StartConversation reuses the existing conversation with the named
// user when one exists; otherwise it creates an empty one, cached with
// a connection greeting, and prepends it to the ordering.
func (c *Core) StartConversation(ctx context.Context, username string) (models.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	actor, ok := c.findUserLocked(c.session)
	if !ok {
		return models.Conversation{}, ErrNoSession
	}
	if strings.EqualFold(actor.Username, username) {
		return models.Conversation{}, ErrSelfTarget
	}

	target, ok := c.findUserLocked(username)
	if !ok {
		return models.Conversation{}, ErrUnknownUser
	}

	for i := range c.conversations {
		if strings.EqualFold(c.conversations[i].User.Username, target.Username) {
			return cloneConversation(c.conversations[i]), nil
		}
	}

	convo := models.Conversation{
		ID:              uuid.NewString(),
		User:            cloneUser(*target),
		LastMessage:     fmt.Sprintf("You are now connected with %s.", target.DisplayName),
		LastMessageTime: "Now",
		Messages:        []models.ChatMessage{},
	}

	c.conversations = append([]models.Conversation{convo}, c.conversations...)
	c.persistConversationsLocked()

	return cloneConversation(convo), nil
}

// SendMessage appends a message from the session user to the
// conversation, refreshes the cached last-message fields and moves the
// conversation to the front of the ordering.
func (c *Core) SendMessage(ctx context.Context, conversationID, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.findUserLocked(c.session); !ok {
		return models.ChatMessage{}, ErrNoSession
	}

	idx := -1
	for i := range c.conversations {
		if c.conversations[i].ID == conversationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ChatMessage{}, ErrUnknownConversation
	}

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    models.SenderSelf,
		Text:      text,
		Timestamp: c.now().Format("3:04 PM"),
	}

	convo := c.conversations[idx]
	convo.Messages = append(convo.Messages, msg)
	convo.LastMessage = msg.Text
	convo.LastMessageTime = msg.Timestamp

	c.conversations = append(c.conversations[:idx], c.conversations[idx+1:]...)
	c.conversations = append([]models.Conversation{convo}, c.conversations...)
	c.persistConversationsLocked()

	return msg, nil
}

// OpenBlob streams the stored payload for a local video.
func (c *Core) OpenBlob(ctx context.Context, id int64) (io.ReadCloser, error) {
	return c.blobs.Get(ctx, id)
}

// Flush blocks until every pending persistence write has settled.
func (c *Core) Flush(ctx context.Context) error {
	return c.writer.flush(ctx)
}

// Close drains pending persistence writes and stops the writer.
func (c *Core) Close(ctx context.Context) error {
	return c.writer.shutdown(ctx)
}

func (c *Core) findUserLocked(username string) (*models.User, bool) {
	if username == "" {
		return nil, false
	}
	for i := range c.users {
		if strings.EqualFold(c.users[i].Username, username) {
			return &c.users[i], true
		}
	}
	return nil, false
}

func (c *Core) nextVideoIDLocked() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastVideoID {
		id = c.lastVideoID + 1
	}
	c.lastVideoID = id
	return id
}

// Persistence helpers enqueue deep copies so later mutations never race
// with an in-flight write. Videos are persisted in durable form: the
// transient playable handle of local videos is stripped.

func (c *Core) persistUsersLocked() {
	c.writer.enqueue(kvstore.KeyUsers, cloneUsers(c.users))
}

func (c *Core) persistVideosLocked() {
	snapshot := cloneVideos(c.videos)
	for i := range snapshot {
		if snapshot[i].IsLocal {
			snapshot[i].Src = ""
		}
	}
	c.writer.enqueue(kvstore.KeyVideos, snapshot)
}

func (c *Core) persistConversationsLocked() {
	c.writer.enqueue(kvstore.KeyConversations, cloneConversations(c.conversations))
}

func (c *Core) persistSessionLocked() {
	if c.session == "" {
		c.writer.enqueue(kvstore.KeySession, nil)
		return
	}
	c.writer.enqueue(kvstore.KeySession, c.session)
}

func cloneUser(u models.User) models.User {
	u.FollowingUsernames = append([]string(nil), u.FollowingUsernames...)
	return u
}

func cloneUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	for i := range users {
		out[i] = cloneUser(users[i])
	}
	return out
}

func cloneVideo(v models.Video) models.Video {
	v.User = cloneUser(v.User)
	return v
}

func cloneVideos(videos []models.Video) []models.Video {
	out := make([]models.Video, len(videos))
	for i := range videos {
		out[i] = cloneVideo(videos[i])
	}
	return out
}

func cloneConversation(c models.Conversation) models.Conversation {
	c.User = cloneUser(c.User)
	c.Messages = append([]models.ChatMessage(nil), c.Messages...)
	return c
}

func cloneConversations(convos []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, len(convos))
	for i := range convos {
		out[i] = cloneConversation(convos[i])
	}
	return out
}
