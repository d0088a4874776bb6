package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reeltalk/reeltalk/internal/models"
)

func testClient(t *testing.T, handler http.Handler) (*GeminiClient, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGeminiClient(GeminiConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		VideoModel:   "veo-test",
		RankModel:    "rank-test",
		PollInterval: time.Millisecond,
		Timeout:      5 * time.Second,
	})
	return client, srv
}

func TestGenerateVideoPollsToCompletion(t *testing.T) {
	var polls int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
		case strings.HasSuffix(r.URL.Path, "operations/op-1"):
			polls++
			if polls < 2 {
				json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"name": "operations/op-1",
				"done": true,
				"response": map[string]any{
					"generatedVideos": []map[string]any{
						{"video": map[string]any{"uri": "https://example.com/video.mp4"}},
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ref, err := client.GenerateVideo(context.Background(), "a calm ocean at dusk")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ref != "https://example.com/video.mp4" {
		t.Fatalf("unexpected reference %q", ref)
	}
	if polls < 2 {
		t.Fatalf("expected at least 2 polls got %d", polls)
	}
}

func TestGenerateVideoWithoutKey(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{})

	_, err := client.GenerateVideo(context.Background(), "prompt")
	if CategoryOf(err) != CategoryMissingCredential {
		t.Fatalf("expected missing-credential got %v", err)
	}
}

func TestGenerateVideoErrorCategories(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		expected Category
	}{
		{"entity not found means bad key", http.StatusNotFound, `{"error":{"message":"Requested entity was not found."}}`, CategoryInvalidCredential},
		{"explicit invalid key", http.StatusBadRequest, `{"error":{"message":"API key not valid. Please pass a valid API key."}}`, CategoryInvalidCredential},
		{"throttled", http.StatusTooManyRequests, `{"error":{"message":"quota exceeded"}}`, CategoryQuota},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"internal"}}`, CategoryUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))

			_, err := client.GenerateVideo(context.Background(), "prompt")
			if got := CategoryOf(err); got != tc.expected {
				t.Fatalf("expected %s got %s (%v)", tc.expected, got, err)
			}
		})
	}
}

func TestGenerateVideoOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewGeminiClient(GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		VideoModel: "veo-test",
	})

	_, err := client.GenerateVideo(context.Background(), "prompt")
	if CategoryOf(err) != CategoryOffline {
		t.Fatalf("expected offline got %v", err)
	}
}

func forYouFixtures() (models.User, []models.Video) {
	viewer := models.User{Username: "alice", FollowingUsernames: []string{"followed"}}
	videos := []models.Video{
		{ID: 1, User: models.User{Username: "alice"}, Caption: "mine"},
		{ID: 2, User: models.User{Username: "followed"}, Caption: "already followed"},
		{ID: 3, User: models.User{Username: "stranger"}, Caption: "new to me"},
		{ID: 4, User: models.User{Username: "stranger"}, Caption: "another"},
	}
	return viewer, videos
}

func TestForYouFeedFiltersModelAnswer(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode prompt: %v", err)
		}
		prompt := req.Contents[0].Parts[0].Text
		if strings.Contains(prompt, "id 1") || strings.Contains(prompt, "id 2") {
			t.Errorf("non-candidate video leaked into prompt: %q", prompt)
		}

		// Answer includes ids outside the candidate set; they must be
		// dropped locally.
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "Here you go: [1, 2, 4, 3, 99]"}}}},
			},
		})
	}))

	viewer, videos := forYouFixtures()
	ids, err := client.ForYouFeed(context.Background(), viewer, videos)
	if err != nil {
		t.Fatalf("for you: %v", err)
	}

	if len(ids) != 2 || ids[0] != 4 || ids[1] != 3 {
		t.Fatalf("expected [4 3] got %v", ids)
	}
}

func TestForYouFeedNoCandidatesSkipsService(t *testing.T) {
	var hits int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	viewer := models.User{Username: "alice"}
	videos := []models.Video{{ID: 1, User: models.User{Username: "alice"}}}

	ids, err := client.ForYouFeed(context.Background(), viewer, videos)
	if err != nil {
		t.Fatalf("for you: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty recommendation got %v", ids)
	}
	if hits != 0 {
		t.Fatalf("expected no upstream call got %d", hits)
	}
}

func TestClampToCandidatesLimitsToFive(t *testing.T) {
	candidates := make([]models.Video, 8)
	ids := make([]int64, 8)
	for i := range candidates {
		candidates[i] = models.Video{ID: int64(i + 1)}
		ids[i] = int64(i + 1)
	}

	got := clampToCandidates(append(ids, ids...), candidates)
	if len(got) != 5 {
		t.Fatalf("expected 5 ids got %d", len(got))
	}
	for i, id := range got {
		if id != int64(i+1) {
			t.Fatalf("unexpected id order %v", got)
		}
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("```json\n[3, 1, 2]\n```")
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 {
		t.Fatalf("unexpected ids %v", ids)
	}

	if _, err := parseIDList("no ids here"); err == nil {
		t.Fatal("expected parse failure without an array")
	}
}
