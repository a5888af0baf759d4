package gotrue

import (
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/hostelhub/go-hostel"
)

// Config configures the GoTrue-backed identity client.
type Config struct {
	// BaseURL is the GoTrue auth endpoint, e.g. https://project.example.co/auth/v1.
	BaseURL string

	// APIKey is the public (anon) API key sent with every request.
	APIKey string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Timeout applies when no HTTPClient is given.
	Timeout time.Duration

	// SessionStore persists the session blob between process restarts.
	// Optional; without it sessions live only in memory.
	SessionStore hostel.ArtifactStore

	// Logger defaults to the package logger when nil.
	Logger hostel.Logger
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return goerrors.New("gotrue: base URL is required", goerrors.CategoryBadInput)
	}

	if strings.TrimSpace(c.APIKey) == "" {
		return goerrors.New("gotrue: API key is required", goerrors.CategoryBadInput)
	}

	return nil
}

func (c Config) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{Timeout: timeout}
}
