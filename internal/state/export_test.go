package state

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExportRequiresSession(t *testing.T) {
	core, _, _ := newTestCore(t)

	if _, err := core.Export(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession got %v", err)
	}
}

func TestExport(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signUpAlice(t, core)
	if _, err := core.PostVideo(ctx, "mine", "", strings.NewReader("bytes")); err != nil {
		t.Fatalf("post video: %v", err)
	}
	convo, err := core.StartConversation(ctx, "naturelover")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	if _, err := core.SendMessage(ctx, convo.ID, "hello"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if _, err := core.Follow(ctx, "naturelover"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	export, err := core.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if export.Profile.Username != "alice" {
		t.Fatalf("expected alice profile got %q", export.Profile.Username)
	}
	if export.Profile.Following != 1 {
		t.Fatalf("expected following count 1 got %d", export.Profile.Following)
	}

	if len(export.Videos) != 1 {
		t.Fatalf("expected 1 authored video got %d", len(export.Videos))
	}
	if export.Videos[0].User.Password != "" {
		t.Fatal("export leaked the credential digest via a video snapshot")
	}

	if len(export.Conversations) != 1 {
		t.Fatalf("expected 1 conversation got %d", len(export.Conversations))
	}
	if export.Conversations[0].With != "naturelover" {
		t.Fatalf("expected counterparty naturelover got %q", export.Conversations[0].With)
	}
	if len(export.Conversations[0].Messages) != 1 || export.Conversations[0].Messages[0].Text != "hello" {
		t.Fatalf("unexpected exported messages %+v", export.Conversations[0].Messages)
	}
}
