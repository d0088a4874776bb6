package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{
		Videos:      deps.Videos,
		Generator:   deps.Generator,
		Recommender: deps.Recommender,
		AILimiter:   deps.AILimiter,
	}
	social := SocialHandler{Social: deps.Social, OnFollow: deps.OnFollow}
	chat := ChatHandler{Chat: deps.Chat}
	profile := ProfileHandler{Profile: deps.Profile}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/feed", videos.Feed)
	mux.HandleFunc("/api/v1/videos", videos.Handle)
	mux.HandleFunc("/api/v1/videos/foryou", videos.ForYou)
	mux.HandleFunc("/api/v1/videos/generate", videos.Generate)
	mux.HandleFunc("/api/v1/media/", videos.Media)
	mux.HandleFunc("/api/v1/users", social.Users)
	mux.HandleFunc("/api/v1/users/follow", social.Follow)
	mux.HandleFunc("/api/v1/conversations", chat.Handle)
	mux.HandleFunc("/api/v1/conversations/messages", chat.SendMessage)
	mux.HandleFunc("/api/v1/profile", profile.Show)
	mux.HandleFunc("/api/v1/profile/export", profile.Export)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions    SessionService
	Videos      VideoService
	Social      SocialService
	Chat        ChatService
	Profile     ProfileService
	Generator   VideoGenerator
	Recommender Recommender
	AuthLimiter RateLimiter
	AILimiter   RateLimiter
	OnFollow    func(username string)
}
