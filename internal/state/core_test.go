package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/reeltalk/reeltalk/internal/kvstore"
	"github.com/reeltalk/reeltalk/internal/storage"
)

var fixedTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCore(t *testing.T) (*Core, *kvstore.MemoryStore, *storage.MemoryStore) {
	t.Helper()

	kv := kvstore.NewMemoryStore()
	blobs := storage.NewMemoryStore()

	core, err := Rehydrate(context.Background(), kv, blobs, discardLogger(), WithNow(func() time.Time { return fixedTime }))
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	t.Cleanup(func() {
		if err := core.Close(context.Background()); err != nil {
			t.Errorf("close core: %v", err)
		}
	})

	return core, kv, blobs
}

func signUpAlice(t *testing.T, core *Core) {
	t.Helper()

	_, err := core.SignUp(context.Background(), SignUpParams{
		DisplayName: "Alice",
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "Password123!",
	})
	if err != nil {
		t.Fatalf("sign up alice: %v", err)
	}
}

func TestSignUpAndLogin(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	user, ok := core.CurrentUser()
	if !ok {
		t.Fatal("expected session after signup")
	}
	if user.Username != "alice" {
		t.Fatalf("expected session user alice got %q", user.Username)
	}
	if user.Followers != 0 || user.Following != 0 {
		t.Fatalf("expected zero social counts got %d/%d", user.Followers, user.Following)
	}
	if user.Password == "Password123!" {
		t.Fatal("plaintext password stored")
	}

	core.Logout(ctx)
	if _, ok := core.CurrentUser(); ok {
		t.Fatal("expected no session after logout")
	}

	if _, ok := core.Login(ctx, "ALICE", "Password123!"); !ok {
		t.Fatal("expected case-insensitive username login to succeed")
	}
	core.Logout(ctx)
	if _, ok := core.Login(ctx, "Alice@Example.com", "Password123!"); !ok {
		t.Fatal("expected case-insensitive email login to succeed")
	}
	if _, ok := core.Login(ctx, "alice", "wrong-password"); ok {
		t.Fatal("expected login with wrong password to fail")
	}
}

func TestSignUpValidation(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	_, err := core.SignUp(ctx, SignUpParams{Username: "bob", Email: "bob@example.com", Password: "Password123!"})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField got %v", err)
	}

	_, err = core.SignUp(ctx, SignUpParams{DisplayName: "Bob", Username: "bob", Email: "bob@example.com", Password: "weak"})
	if err == nil {
		t.Fatal("expected weak password to be rejected")
	}
}

func TestSignUpDuplicateIdentity(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)
	before := len(core.Users())

	_, err := core.SignUp(ctx, SignUpParams{DisplayName: "Other", Username: "ALICE", Email: "other@example.com", Password: "Password123!"})
	if !errors.Is(err, ErrIdentityTaken) {
		t.Fatalf("expected ErrIdentityTaken for duplicate username got %v", err)
	}

	_, err = core.SignUp(ctx, SignUpParams{DisplayName: "Other", Username: "other", Email: "ALICE@example.com", Password: "Password123!"})
	if !errors.Is(err, ErrIdentityTaken) {
		t.Fatalf("expected ErrIdentityTaken for duplicate email got %v", err)
	}

	if got := len(core.Users()); got != before {
		t.Fatalf("failed signup mutated users: %d != %d", got, before)
	}
}

func TestPostVideo(t *testing.T) {
	core, _, blobs := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	video, err := core.PostVideo(ctx, "hello world", "", strings.NewReader("payload-bytes"))
	if err != nil {
		t.Fatalf("post video: %v", err)
	}

	if video.ID <= 0 {
		t.Fatalf("expected positive video id got %d", video.ID)
	}
	if !video.IsLocal {
		t.Fatal("expected posted video to be flagged local")
	}
	if video.Src != MediaPath(video.ID) {
		t.Fatalf("expected playable handle got %q", video.Src)
	}
	if video.AudioName != "Original Audio - Alice" {
		t.Fatalf("expected default audio name got %q", video.AudioName)
	}
	if video.Likes != 0 || video.Comments != 0 || video.Shares != 0 {
		t.Fatal("expected zeroed counters on a new video")
	}
	if !storage.Exists(ctx, blobs, video.ID) {
		t.Fatal("expected payload in blob store")
	}

	feed := core.Feed()
	if len(feed) == 0 || feed[0].ID != video.ID {
		t.Fatal("expected new video at front of feed")
	}
}

func TestPostVideoIDsAreMonotonic(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	first, err := core.PostVideo(ctx, "first", "", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("post first: %v", err)
	}
	second, err := core.PostVideo(ctx, "second", "", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("post second: %v", err)
	}

	if second.ID <= first.ID {
		t.Fatalf("expected strictly increasing ids: %d then %d", first.ID, second.ID)
	}
}

func TestPostVideoAbortsWhenBlobWriteFails(t *testing.T) {
	core, _, blobs := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)
	before := len(core.Feed())

	blobs.PutErr = errors.New("disk full")
	if _, err := core.PostVideo(ctx, "doomed", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected post to fail when blob write fails")
	}

	if got := len(core.Feed()); got != before {
		t.Fatalf("video record created without backing bytes: %d != %d", got, before)
	}
}

func TestPostVideoValidation(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	if _, err := core.PostVideo(ctx, "no session", "", strings.NewReader("x")); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession got %v", err)
	}

	signUpAlice(t, core)

	if _, err := core.PostVideo(ctx, "   ", "", strings.NewReader("x")); !errors.Is(err, ErrEmptyCaption) {
		t.Fatalf("expected ErrEmptyCaption got %v", err)
	}
	if _, err := core.PostVideo(ctx, "caption", "", nil); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload got %v", err)
	}
}

func TestUpdateVideo(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	feed := core.Feed()
	if len(feed) == 0 {
		t.Fatal("expected seeded feed")
	}

	updated := feed[0]
	updated.Likes++
	if !core.UpdateVideo(ctx, updated) {
		t.Fatal("expected update of existing video to succeed")
	}

	got, ok := core.VideoByID(updated.ID)
	if !ok || got.Likes != updated.Likes {
		t.Fatalf("expected likes %d got %d", updated.Likes, got.Likes)
	}

	updated.ID = 999999
	if core.UpdateVideo(ctx, updated) {
		t.Fatal("expected update with unknown id to be a no-op")
	}
}

func TestFollowIsIdempotent(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	var baseline int
	for _, u := range core.Users() {
		if u.Username == "naturelover" {
			baseline = u.Followers
		}
	}

	for i := 0; i < 3; i++ {
		actor, err := core.Follow(ctx, "naturelover")
		if err != nil {
			t.Fatalf("follow: %v", err)
		}
		if actor.Following != 1 {
			t.Fatalf("expected following == 1 after call %d got %d", i+1, actor.Following)
		}
		if len(actor.FollowingUsernames) != 1 || actor.FollowingUsernames[0] != "naturelover" {
			t.Fatalf("unexpected followingUsernames %v", actor.FollowingUsernames)
		}
	}

	for _, u := range core.Users() {
		if u.Username == "naturelover" && u.Followers != baseline+1 {
			t.Fatalf("expected followers %d got %d", baseline+1, u.Followers)
		}
	}
}

func TestFollowSelfIsNoOp(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	actor, err := core.Follow(ctx, "alice")
	if err != nil {
		t.Fatalf("follow self: %v", err)
	}
	if actor.Following != 0 || len(actor.FollowingUsernames) != 0 {
		t.Fatalf("expected self-follow to be a no-op got %v", actor.FollowingUsernames)
	}
}

func TestFollowUnknownUser(t *testing.T) {
	core, _, _ := newTestCore(t)

	signUpAlice(t, core)

	if _, err := core.Follow(context.Background(), "nobody"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser got %v", err)
	}
}

func TestStartConversationReusesExisting(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	first, err := core.StartConversation(ctx, "naturelover")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	if first.LastMessage != "You are now connected with Nature Lover." {
		t.Fatalf("unexpected greeting %q", first.LastMessage)
	}
	if first.LastMessageTime != "Now" {
		t.Fatalf("unexpected last message time %q", first.LastMessageTime)
	}

	second, err := core.StartConversation(ctx, "naturelover")
	if err != nil {
		t.Fatalf("start conversation again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing conversation %q got %q", first.ID, second.ID)
	}
	if got := len(core.Conversations()); got != 1 {
		t.Fatalf("expected a single conversation got %d", got)
	}

	if _, err := core.StartConversation(ctx, "alice"); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("expected ErrSelfTarget got %v", err)
	}
}

func TestSendMessageUpdatesCacheAndOrdering(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)

	older, err := core.StartConversation(ctx, "naturelover")
	if err != nil {
		t.Fatalf("start first conversation: %v", err)
	}
	if _, err := core.StartConversation(ctx, "bunnyfan"); err != nil {
		t.Fatalf("start second conversation: %v", err)
	}

	msg, err := core.SendMessage(ctx, older.ID, "  hey there  ")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.Text != "hey there" {
		t.Fatalf("expected trimmed text got %q", msg.Text)
	}
	if msg.Sender != "me" {
		t.Fatalf("expected sender me got %q", msg.Sender)
	}
	if msg.Timestamp != "3:04 PM" {
		t.Fatalf("expected clock-style timestamp got %q", msg.Timestamp)
	}

	convos := core.Conversations()
	if convos[0].ID != older.ID {
		t.Fatal("expected conversation moved to front after message")
	}
	if convos[0].LastMessage != "hey there" || convos[0].LastMessageTime != "3:04 PM" {
		t.Fatalf("cached last message not refreshed: %q %q", convos[0].LastMessage, convos[0].LastMessageTime)
	}
	if got := len(convos[0].Messages); got != 1 {
		t.Fatalf("expected 1 message got %d", got)
	}

	if _, err := core.SendMessage(ctx, older.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage got %v", err)
	}
	if _, err := core.SendMessage(ctx, "missing-id", "hello"); !errors.Is(err, ErrUnknownConversation) {
		t.Fatalf("expected ErrUnknownConversation got %v", err)
	}
}

func TestMutationsSurvivePersistenceFailure(t *testing.T) {
	core, kv, _ := newTestCore(t)
	ctx := context.Background()

	kv.SaveErr = errors.New("store offline")

	signUpAlice(t, core)

	if err := core.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if _, ok := core.CurrentUser(); !ok {
		t.Fatal("expected in-memory signup to survive persistence failure")
	}
	if _, err := core.Follow(ctx, "naturelover"); err != nil {
		t.Fatalf("follow with failing store: %v", err)
	}
}
