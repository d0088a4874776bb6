package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reeltalk/reeltalk/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// GeminiConfig configures the hosted collaborator client.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	VideoModel   string
	RankModel    string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// GeminiClient implements Client against the Generative Language API.
type GeminiClient struct {
	cfg GeminiConfig
}

// NewGeminiClient returns a client for the hosted service.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiClient{cfg: cfg}
}

type generateVideoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	NumberOfVideos int    `json:"numberOfVideos"`
	Resolution     string `json:"resolution"`
	AspectRatio    string `json:"aspectRatio"`
}

type operation struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Error    *apiError      `json:"error,omitempty"`
	Response *videoResponse `json:"response,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type videoResponse struct {
	GeneratedVideos []struct {
		Video struct {
			URI string `json:"uri"`
		} `json:"video"`
	} `json:"generatedVideos"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateVideo starts a long-running generation for the prompt, polls
// it to completion and returns the download reference.
func (c *GeminiClient) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", newError(CategoryMissingCredential, "no API key configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := generateVideoRequest{
		Instances: []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "9:16",
		},
	}

	var op operation
	path := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", c.cfg.VideoModel)
	if err := c.post(ctx, path, body, &op); err != nil {
		return "", err
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", newError(CategoryUnavailable, "video generation timed out", ctx.Err())
		case <-ticker.C:
		}
		if err := c.get(ctx, "/v1beta/"+op.Name, &op); err != nil {
			return "", err
		}
	}

	if op.Error != nil {
		return "", categorize(op.Error.Code, op.Error.Message)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video.URI == "" {
		return "", newError(CategoryUnavailable, "video generation finished without a download link", nil)
	}

	return op.Response.GeneratedVideos[0].Video.URI, nil
}

// ForYouFeed asks the ranking model to pick up to five videos for the
// user. The model only ever sees the candidate set; its answer is
// filtered against it again before being returned.
func (c *GeminiClient) ForYouFeed(ctx context.Context, user models.User, videos []models.Video) ([]int64, error) {
	if c.cfg.APIKey == "" {
		return nil, newError(CategoryMissingCredential, "no API key configured", nil)
	}

	candidates := forYouCandidates(user, videos)
	if len(candidates) == 0 {
		return []int64{}, nil
	}

	var sb strings.Builder
	sb.WriteString("You rank short videos for a viewer. Pick at most 5 video ids the viewer is most likely to enjoy.\n")
	sb.WriteString("Answer with a JSON array of ids and nothing else.\n\nCandidates:\n")
	for _, v := range candidates {
		fmt.Fprintf(&sb, "- id %d: %s (audio: %s, likes: %d)\n", v.ID, v.Caption, v.AudioName, v.Likes)
	}

	req := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: sb.String()}}}},
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.cfg.RankModel)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, newError(CategoryUnavailable, "ranking model returned no answer", nil)
	}

	ids, err := parseIDList(resp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, newError(CategoryUnavailable, "ranking model answer was not parseable", err)
	}

	return clampToCandidates(ids, candidates), nil
}

// parseIDList extracts a JSON array of ids from the model's answer,
// tolerating surrounding prose and markdown fences.
func parseIDList(text string) ([]int64, error) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in %q", text)
	}

	var ids []int64
	if err := json.Unmarshal([]byte(text[start:end+1]), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *GeminiClient) post(ctx context.Context, path string, payload, dest any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return newError(CategoryUnavailable, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return newError(CategoryUnavailable, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, dest)
}

func (c *GeminiClient) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return newError(CategoryUnavailable, "build request", err)
	}
	return c.do(req, dest)
}

func (c *GeminiClient) do(req *http.Request, dest any) error {
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		// Transport-level failures mean we never reached the service.
		return newError(CategoryOffline, "service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return newError(CategoryUnavailable, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return categorize(resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return newError(CategoryUnavailable, "decode response", err)
	}
	return nil
}

// categorize maps an upstream status and message to a failure category.
// The invalid-key signatures come from observed service behavior: a
// bad key surfaces either as "Requested entity was not found." or as an
// "API key not valid" message.
func categorize(status int, message string) *Error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "Requested entity was not found."),
		strings.Contains(lower, "api key not valid"):
		return newError(CategoryInvalidCredential, "API key rejected", nil)
	case status == http.StatusTooManyRequests:
		return newError(CategoryQuota, "request was throttled", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(CategoryInvalidCredential, "API key rejected", nil)
	default:
		return newError(CategoryUnavailable, fmt.Sprintf("upstream failure (status %d)", status), nil)
	}
}

var _ Client = (*GeminiClient)(nil)
