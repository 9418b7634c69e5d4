package supabase

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config configures the auth backend client.
type Config struct {
	// BaseURL is the project URL, e.g. https://xyz.supabase.co.
	BaseURL string

	// AnonKey authenticates public endpoints: signup, token, recover.
	AnonKey string

	// ServiceRoleKey authenticates admin endpoints. Never sent on public
	// endpoints.
	ServiceRoleKey string

	// HTTPClient is optional; a 10s-timeout client is used when nil.
	HTTPClient *http.Client

	// RedirectTo is the optional redirect embedded in recovery emails.
	RedirectTo string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("supabase: base url is required")
	}

	if strings.TrimSpace(c.AnonKey) == "" {
		return fmt.Errorf("supabase: anon key is required")
	}

	if strings.TrimSpace(c.ServiceRoleKey) == "" {
		return fmt.Errorf("supabase: service role key is required")
	}

	return nil
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: time.Second * 10}
}
