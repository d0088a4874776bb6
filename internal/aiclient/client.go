// Package aiclient talks to the external generative/recommendation
// service. The rest of the application treats it as an opaque
// collaborator: its failures are categorized, surfaced to the caller
// and never persisted.
package aiclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/reeltalk/reeltalk/internal/models"
)

// Category classifies a collaborator failure for presentation.
type Category string

const (
	// CategoryOffline indicates the service was unreachable.
	CategoryOffline Category = "offline"
	// CategoryMissingCredential indicates no API key is configured.
	CategoryMissingCredential Category = "missing-credential"
	// CategoryInvalidCredential indicates the configured key was rejected.
	CategoryInvalidCredential Category = "invalid-credential"
	// CategoryQuota indicates the request was throttled upstream.
	CategoryQuota Category = "quota"
	// CategoryUnavailable covers every other upstream failure.
	CategoryUnavailable Category = "unavailable"
)

// Error is a categorized collaborator failure.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(category Category, message string, err error) *Error {
	return &Error{Category: category, Message: message, Err: err}
}

// CategoryOf extracts the failure category, defaulting to unavailable
// for uncategorized errors.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryUnavailable
}

// Client is the collaborator boundary. GenerateVideo returns a playable
// download reference for the prompt. ForYouFeed returns up to five
// video ids recommended for the user, drawn only from videos the user
// neither authored nor already follows the author of.
type Client interface {
	GenerateVideo(ctx context.Context, prompt string) (string, error)
	ForYouFeed(ctx context.Context, user models.User, videos []models.Video) ([]int64, error)
}

// forYouCandidates filters videos down to the recommendable set:
// nothing authored by the user, nothing authored by someone the user
// already follows.
func forYouCandidates(user models.User, videos []models.Video) []models.Video {
	candidates := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		author := v.User.Username
		if author == user.Username || user.Follows(author) {
			continue
		}
		candidates = append(candidates, v)
	}
	return candidates
}

// clampToCandidates keeps only ids present in the candidate set,
// deduplicated, at most five. The model's answer is advisory; the
// local filter is authoritative.
func clampToCandidates(ids []int64, candidates []models.Video) []int64 {
	allowed := make(map[int64]bool, len(candidates))
	for _, v := range candidates {
		allowed[v.ID] = true
	}

	out := make([]int64, 0, 5)
	for _, id := range ids {
		if !allowed[id] {
			continue
		}
		allowed[id] = false
		out = append(out, id)
		if len(out) == 5 {
			break
		}
	}
	return out
}
