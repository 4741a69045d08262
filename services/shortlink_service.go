package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ShortLinkProvider returns a persisted short URL for a canonical claim
// URL at link-creation time. Failure propagates as a creation error.
type ShortLinkProvider interface {
	CreateShortLink(ctx context.Context, title, url string) (string, error)
}

// ShortLinkService talks to an external short-link API. When the API is
// not configured it falls back to locally generated short codes so
// development environments work without credentials.
type ShortLinkService struct {
	baseURL     string
	apiKey      string
	shortDomain string
	client      *http.Client
}

// NewShortLinkService creates a new short link service from environment
// configuration
func NewShortLinkService() *ShortLinkService {
	baseURL := os.Getenv("SHORTLINK_API_URL")
	apiKey := os.Getenv("SHORTLINK_API_KEY")
	shortDomain := os.Getenv("SHORTLINK_DOMAIN")
	if shortDomain == "" {
		shortDomain = "https://refer.page"
	}

	if baseURL == "" || apiKey == "" {
		log.Printf("WARNING: Short link API not fully configured:")
		if baseURL == "" {
			log.Printf("  - SHORTLINK_API_URL is missing")
		}
		if apiKey == "" {
			log.Printf("  - SHORTLINK_API_KEY is missing")
		}
		log.Printf("Falling back to locally generated short codes")
	} else {
		log.Printf("Short link service configured: %s (domain %s)", baseURL, shortDomain)
	}

	return &ShortLinkService{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		shortDomain: strings.TrimSuffix(shortDomain, "/"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type shortLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type shortLinkResponse struct {
	Link    string `json:"link"`
	Message string `json:"message,omitempty"`
}

// CreateShortLink returns the short URL for the given canonical URL.
func (s *ShortLinkService) CreateShortLink(ctx context.Context, title, url string) (string, error) {
	if s.baseURL == "" || s.apiKey == "" {
		code := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		return fmt.Sprintf("%s/%s", s.shortDomain, code), nil
	}

	resp, err := s.makeRequest(ctx, http.MethodPost, "links", shortLinkRequest{Title: title, URL: url})
	if err != nil {
		return "", err
	}
	if resp.Link == "" {
		return "", fmt.Errorf("short link API returned no link: %s", resp.Message)
	}
	return resp.Link, nil
}

// makeRequest performs an HTTP request to the short link API
func (s *ShortLinkService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*shortLinkResponse, error) {
	url := s.baseURL + "/" + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("short link API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var shortResp shortLinkResponse
	if err := json.Unmarshal(respBody, &shortResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w\nResponse body: %s", err, string(respBody))
	}

	return &shortResp, nil
}
