package app

import (
	"time"

	"github.com/reeltalk/reeltalk/internal/aiclient"
	"github.com/reeltalk/reeltalk/internal/config"
	"github.com/reeltalk/reeltalk/internal/handlers"
	"github.com/reeltalk/reeltalk/internal/middleware"
	"github.com/reeltalk/reeltalk/internal/state"
)

// buildDependencies wires together concrete implementations used by the
// HTTP handlers. The hosted collaborator is wired unconditionally: when
// no API key is configured its calls fail with the missing-credential
// category, which the handlers surface to the client instead of
// fabricating a result.
func buildDependencies(core *state.Core, cfg config.Config) handlers.Dependencies {
	ai := aiclient.NewGeminiClient(aiclient.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		VideoModel:   cfg.GeminiVideoModel,
		RankModel:    cfg.GeminiRankModel,
		PollInterval: cfg.GeminiPollInterval,
		Timeout:      cfg.GeminiTimeout,
	})

	cached := aiclient.NewCachingClient(ai, cfg.ForYouCacheTTL)

	return handlers.Dependencies{
		Sessions:    core,
		Videos:      core,
		Social:      core,
		Chat:        core,
		Profile:     core,
		Generator:   cached,
		Recommender: cached,
		AuthLimiter: middleware.NewKeyedRateLimiter(10, time.Minute, 5, 10*time.Minute),
		AILimiter:   middleware.NewKeyedRateLimiter(3, time.Minute, 2, 10*time.Minute),
		OnFollow:    cached.Invalidate,
	}
}
