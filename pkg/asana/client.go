package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/harrisonrobin/sotasks/pkg/task"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Asana REST API root.
	DefaultBaseURL = "https://app.asana.com/api/1.0"

	// Opts into current API behaviour and silences deprecation warnings.
	enableHeader   = "Asana-Enable"
	enableFeatures = "new_goal_memberships,new_user_task_lists"
)

var (
	// ErrInvalidToken is returned by NewClient when Asana rejects the access token.
	ErrInvalidToken = errors.New("access token is invalid, please try again")
	// ErrAlreadyTracked is returned by Create for a task that already has an Asana identifier.
	ErrAlreadyTracked = errors.New("task is already in asana")
	// ErrNotTracked is returned by Update for a task without an Asana identifier.
	ErrNotTracked = errors.New("task does not have an identifier for asana")
)

// Error is a non-2xx response from the Asana API.
type Error struct {
	StatusCode int
	Messages   []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("asana: status %d", e.StatusCode)
	}
	return fmt.Sprintf("asana: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// User is the account an access token belongs to.
type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client is an Asana API client scoped to a single project.
type Client struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	handle     uuid.UUID
	user       User
	logger     *log.Logger

	base *http.Client
}

// Option configures a Client built by NewClient.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client whose transport carries the requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.base = hc
	}
}

// WithLogger sets the logger warnings are written to.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates an Asana client for projectID and verifies accessToken.
func NewClient(ctx context.Context, accessToken, projectID string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:   DefaultBaseURL,
		projectID: projectID,
		handle:    task.NewHandle(),
		logger:    log.Default(),
		base:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	transport := c.base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	c.httpClient = &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: &headerTransport{base: transport}},
		Timeout:   c.base.Timeout,
	}

	if err := c.checkToken(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// IdentifierKey identifies this client in a task's identifier mapping.
func (c *Client) IdentifierKey() uuid.UUID {
	return c.handle
}

// ProjectID returns the project the client reads from and writes to.
func (c *Client) ProjectID() string {
	return c.projectID
}

// User returns the account the access token belongs to.
func (c *Client) User() User {
	return c.user
}

func (c *Client) String() string {
	return fmt.Sprintf("asana project %s", c.projectID)
}

func (c *Client) checkToken(ctx context.Context) error {
	var resp struct {
		Data User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &resp); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return fmt.Errorf("could not verify access token: %w", err)
	}
	c.user = resp.Data
	return nil
}

// do sends data wrapped in Asana's {"data": ...} envelope and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, data any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if data != nil {
		b, err := json.Marshal(map[string]any{"data": data})
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode asana response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		for _, e := range payload.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
	}
	return apiErr
}

// headerTransport adds the Asana-Enable header to every request.
type headerTransport struct {
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(enableHeader, enableFeatures)
	return t.base.RoundTrip(r)
}
