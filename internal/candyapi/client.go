package candyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/rag"
)

const (
	// DefaultBaseURL is where the demo backend listens by default.
	DefaultBaseURL = "http://localhost:8000"
	// EnvBaseURL overrides the backend location.
	EnvBaseURL = "CANDYRAG_API_URL"

	defaultHTTPTimeout = 60 * time.Second
	maxBodyBytes       = 8 << 20
	requestIDHeader    = "X-Request-ID"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// ErrBadResponse marks a body that could not be decoded or broke the schema.
var ErrBadResponse = errors.New("bad response")

// Config describes how to build a client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the candy store backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New builds a client. An empty BaseURL falls back to $CANDYRAG_API_URL and
// then DefaultBaseURL.
func New(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		if env := os.Getenv(EnvBaseURL); env != "" {
			base = env
		} else {
			base = DefaultBaseURL
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    pickHTTPClient(cfg.HTTPClient),
		logger:  logger.Named("api"),
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// BaseURL is the backend root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type queryRequest struct {
	Query    string        `json:"query"`
	Language i18n.Language `json:"language"`
}

// Query posts the query and returns the validated response.
func (c *Client) Query(ctx context.Context, query string, lang i18n.Language) (*rag.QueryResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/query", queryRequest{Query: query, Language: lang})
	if err != nil {
		return nil, err
	}
	resp, err := rag.ParseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return resp, nil
}

// Reset notifies the backend that the session was reset.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/reset", nil)
	return err
}

// Candies fetches the catalog. Duplicate IDs keep their first entry.
func (c *Client) Candies(ctx context.Context) ([]catalog.Candy, error) {
	body, err := c.do(ctx, http.MethodGet, "/candies", nil)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Candies []catalog.Candy `json:"candies"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return catalog.Dedupe(parsed.Candies), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Info("request finished",
		zap.String("method", method), zap.String("path", path),
		zap.String("request_id", requestID), zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}
