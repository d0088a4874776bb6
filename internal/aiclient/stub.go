package aiclient

import (
	"context"

	"github.com/reeltalk/reeltalk/internal/models"
)

// StubClient is a deterministic Client for tests and keyless runs. When
// no errors are injected, GenerateVideo echoes a fixed reference and
// ForYouFeed returns the first five candidates in feed order.
type StubClient struct {
	VideoRef    string
	GenerateErr error
	ForYouErr   error

	// Calls counts ForYouFeed invocations that reached the stub, used
	// to assert cache behavior.
	Calls int
}

func (s *StubClient) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	if s.GenerateErr != nil {
		return "", s.GenerateErr
	}
	if s.VideoRef != "" {
		return s.VideoRef, nil
	}
	return "stub://generated-video", nil
}

func (s *StubClient) ForYouFeed(ctx context.Context, user models.User, videos []models.Video) ([]int64, error) {
	s.Calls++
	if s.ForYouErr != nil {
		return nil, s.ForYouErr
	}

	candidates := forYouCandidates(user, videos)
	ids := make([]int64, 0, len(candidates))
	for _, v := range candidates {
		ids = append(ids, v.ID)
	}
	return clampToCandidates(ids, candidates), nil
}

var _ Client = (*StubClient)(nil)
