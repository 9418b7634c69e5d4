package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/clarix-app/clarix-api"
)

// Error is a failed auth backend response. Message holds whichever of the
// backend's error fields was populated; callers match on it to translate
// known failures.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.Status)
}

// Client talks to the GoTrue REST API. Public flows use the anon key; admin
// flows use the service role key. The two never mix on a single request.
type Client struct {
	config Config
	http   *http.Client
}

var _ clarix.IdentityBackend = (*Client)(nil)

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		http:   config.httpClient(),
	}, nil
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         *userPayload `json:"user"`
}

// signUpPayload covers both backend shapes: with email confirmation on, the
// user object comes back at the top level; with autoconfirm, it is nested
// inside a session.
type signUpPayload struct {
	sessionPayload
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*clarix.Identity, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	out := &signUpPayload{}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", c.config.AnonKey, body, out); err != nil {
		return nil, err
	}

	if out.User != nil {
		return &clarix.Identity{ID: out.User.ID, Email: out.User.Email}, nil
	}

	if out.ID == "" {
		return nil, &Error{Status: http.StatusBadGateway, Message: "signup response missing user"}
	}

	return &clarix.Identity{ID: out.ID, Email: out.Email}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*clarix.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	out := &sessionPayload{}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.config.AnonKey, body, out); err != nil {
		return nil, err
	}

	return mapSession(out), nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*clarix.Session, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}

	out := &sessionPayload{}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", c.config.AnonKey, body, out); err != nil {
		return nil, err
	}

	return mapSession(out), nil
}

// SignOut revokes the session behind accessToken. The backend scopes the
// revocation to that session's refresh token family.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.doBearer(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *Client) SendRecoveryEmail(ctx context.Context, email string) error {
	body := map[string]string{
		"email": email,
	}

	path := "/auth/v1/recover"
	if c.config.RedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(c.config.RedirectTo)
	}

	return c.do(ctx, http.MethodPost, path, c.config.AnonKey, body, nil)
}

func (c *Client) VerifyRecoveryToken(ctx context.Context, tokenHash string) (*clarix.Identity, error) {
	body := map[string]string{
		"token_hash": tokenHash,
		"type":       "recovery",
	}

	out := &sessionPayload{}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", c.config.AnonKey, body, out); err != nil {
		return nil, err
	}

	if out.User == nil {
		return nil, &Error{Status: http.StatusBadGateway, Message: "verify response missing user"}
	}

	return &clarix.Identity{ID: out.User.ID, Email: out.User.Email}, nil
}

func (c *Client) AdminUpdatePassword(ctx context.Context, userID, newPassword string) error {
	body := map[string]string{
		"password": newPassword,
	}

	path := "/auth/v1/admin/users/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodPut, path, c.config.ServiceRoleKey, body, nil)
}

func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	path := "/auth/v1/admin/users/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, c.config.ServiceRoleKey, nil, nil)
}

// do sends a request authenticated by key, which doubles as the bearer token.
func (c *Client) do(ctx context.Context, method, path, key string, body, out any) error {
	return c.send(ctx, method, path, key, key, body, out)
}

// doBearer sends a request with the anon key as apikey and a user access
// token as the bearer.
func (c *Client) doBearer(ctx context.Context, method, path, bearer string, body, out any) error {
	return c.send(ctx, method, path, c.config.AnonKey, bearer, body, out)
}

func (c *Client) send(ctx context.Context, method, path, apikey, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("supabase: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}

	req.Header.Set("apikey", apikey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return decodeError(res)
	}

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("supabase: decode response: %w", err)
	}

	return nil
}

// decodeError extracts the human message from a failed response. The backend
// uses different field names across endpoints and versions.
func decodeError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))

	payload := struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorField       string `json:"error"`
	}{}

	message := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, candidate := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.ErrorField} {
			if candidate != "" {
				message = candidate
				break
			}
		}
	}

	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = res.Status
	}

	return &Error{
		Status:  res.StatusCode,
		Message: message,
	}
}

func mapSession(p *sessionPayload) *clarix.Session {
	if p == nil || p.AccessToken == "" {
		return nil
	}

	session := &clarix.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
	}

	if p.User != nil {
		session.User = &clarix.Identity{
			ID:    p.User.ID,
			Email: p.User.Email,
		}
	}

	return session
}
