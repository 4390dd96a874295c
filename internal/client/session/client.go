package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/core/domain"
)

// Error areas, attached to errors so callers know which action failed.
const (
	AreaFetchUser = "fetchUser"
	AreaRegister  = "register"
	AreaLogin     = "login"
)

// Navigation is a request to move the user to URL. Following it is the
// caller's job.
type Navigation struct {
	URL string
}

// IsZero reports whether no navigation was requested.
func (n Navigation) IsZero() bool { return n.URL == "" }

type RegisterForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authBody struct {
	AccessToken string `json:"access_token"`
}

// Client runs session actions against the API and records their outcome in
// a Store. HTTP failures never surface as Go errors; they are committed to
// the store.
type Client struct {
	apiURL      string
	frontendURL string
	http        *http.Client
	store       *Store
	log         zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default cookie-jar client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg Config, store *Store, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiURL:      cfg.APIURL,
		frontendURL: cfg.FrontendURL,
		store:       store,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		jar, _ := cookiejar.New(nil)
		c.http = &http.Client{Jar: jar}
	}
	return c
}

// Store returns the store the client commits to.
func (c *Client) Store() *Store { return c.store }

// FetchUser loads the signed-in user. It reports true only when the API
// answered 200.
func (c *Client) FetchUser(ctx context.Context) bool {
	res, err := c.do(ctx, http.MethodGet, "/auth/user", nil)
	if err != nil {
		c.fail(AreaFetchUser, classify(nil, nil, AreaFetchUser, err))
		return false
	}
	defer res.Body.Close()
	body, readErr := io.ReadAll(res.Body)

	if !isSuccess(res.StatusCode) || readErr != nil {
		c.fail(AreaFetchUser, classify(res, body, AreaFetchUser, readErr))
		return false
	}
	if res.StatusCode != http.StatusOK {
		return false
	}

	var user domain.PublicUser
	if err := json.Unmarshal(body, &user); err != nil {
		c.fail(AreaFetchUser, classify(nil, nil, AreaFetchUser, err))
		return false
	}
	c.store.Commit(SetUser(user))

	stored, _, err := c.store.Storage().Get(AccessTokenKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read stored access token")
	}
	c.store.Commit(SetAccessToken(stored))
	return true
}

// Register creates an account. On success it returns a navigation to the
// dashboard; on failure it returns the committed error.
func (c *Client) Register(ctx context.Context, form RegisterForm) (Navigation, *domain.APIError) {
	return c.authenticate(ctx, "/auth/register", form, AreaRegister)
}

// Login signs in with e-mail and password.
func (c *Client) Login(ctx context.Context, creds Credentials) (Navigation, *domain.APIError) {
	return c.authenticate(ctx, "/auth/login", creds, AreaLogin)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any, area string) (Navigation, *domain.APIError) {
	res, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return Navigation{}, c.fail(area, classify(nil, nil, area, err))
	}
	defer res.Body.Close()
	body, readErr := io.ReadAll(res.Body)

	if !isSuccess(res.StatusCode) {
		return Navigation{}, c.fail(area, classify(res, body, area, readErr))
	}
	if res.StatusCode != http.StatusCreated {
		return Navigation{}, nil
	}

	var auth authBody
	if err := json.Unmarshal(body, &auth); err == nil && auth.AccessToken != "" {
		c.store.Commit(SetAccessToken(auth.AccessToken))
	}
	return Navigation{URL: c.frontendURL + "/dashboard"}, nil
}

// Logout asks the API to end the session and clears the local session
// regardless of the outcome. The returned error is informational only.
func (c *Client) Logout(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodGet, "/auth/logout", nil)
	if err == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
		if !isSuccess(res.StatusCode) {
			err = fmt.Errorf("session: logout returned %d", res.StatusCode)
		}
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("logout request failed, clearing local session")
	}

	c.store.Commit(SetUserErrorOrLogout(nil))
	c.store.Commit(SetAccessToken(""))
	return err
}

func (c *Client) fail(area string, apiErr *domain.APIError) *domain.APIError {
	c.log.Debug().Str("area", area).Int("status", apiErr.StatusCode).Str("message", apiErr.Message).Msg("session action failed")
	return c.store.Commit(SetUserErrorOrLogout(apiErr)).Error
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok, _ := c.store.Storage().Get(AccessTokenKey); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// classify turns a failed exchange into an APIError tagged with area. A JSON
// object body is taken as the server's error; anything else becomes the
// generic server error.
func classify(res *http.Response, body []byte, area string, cause error) *domain.APIError {
	if res == nil || cause != nil {
		return domain.GenericAPIError(area)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.GenericAPIError(area)
	}
	var apiErr domain.APIError
	if err := json.Unmarshal(trimmed, &apiErr); err != nil {
		return domain.GenericAPIError(area)
	}
	return apiErr.WithArea(area)
}
