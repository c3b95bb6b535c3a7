package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/savezy/savezy/pkg/contents"
	"github.com/savezy/savezy/pkg/logging"
)

const (
	// HealthTimeout bounds the availability probe. No other call has a deadline
	// beyond the caller's context.
	HealthTimeout = 5 * time.Second

	perPage = 200
)

// StatusError is a non-2xx answer from the mirror.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrRemoteUnavailable, and ErrNotAuthenticated for
// 401/403 answers.
func (e *StatusError) Unwrap() []error {
	errs := []error{ErrRemoteUnavailable}
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		errs = append(errs, ErrNotAuthenticated)
	}
	return errs
}

// Client is a REST client for the mirror's collections. Calls are scoped to the
// signed-in user when a session is set and unscoped otherwise.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu      sync.RWMutex
	session *Session
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession starts the client signed in.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

func NewClient(baseURL string, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.With("component", "remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// AuthWithPassword signs in against the users collection and keeps the session.
func (c *Client) AuthWithPassword(ctx context.Context, identity, password string) (*Session, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/collections/users/auth-with-password", nil,
		authRequest{Identity: identity, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	s, err := SessionFromToken(resp.Token)
	if err != nil {
		return nil, err
	}
	if s.UserID == "" {
		s.UserID = resp.Record.ID
	}
	s.Email = resp.Record.Email

	c.SetSession(s)
	c.log.Info(ctx, "signed in", "user", s.UserID)
	return s, nil
}

// Health probes the mirror, giving up after HealthTimeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// List returns the records of kind, or of every collection when kind is empty.
func (c *Client) List(ctx context.Context, kind contents.Kind) ([]Record, error) {
	return c.listKinds(ctx, kind, c.userFilter())
}

// Search matches query against the text fields of every collection.
func (c *Client) Search(ctx context.Context, query string) ([]Record, error) {
	q := quoteFilter(strings.TrimSpace(query))
	textFilter := fmt.Sprintf(`(title ~ %s || url ~ %s || description ~ %s || summary ~ %s || comment ~ %s)`, q, q, q, q, q)

	filter := textFilter
	if uf := c.userFilter(); uf != "" {
		filter = uf + " && " + textFilter
	}
	return c.listKinds(ctx, "", filter)
}

func (c *Client) listKinds(ctx context.Context, kind contents.Kind, filter string) ([]Record, error) {
	kinds := RemoteKinds()
	if kind != "" {
		kinds = []contents.Kind{kind}
	}

	out := []Record{}
	for _, k := range kinds {
		records, err := c.listCollection(ctx, k, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (c *Client) listCollection(ctx context.Context, kind contents.Kind, filter string) ([]Record, error) {
	collection, err := Collection(kind)
	if err != nil {
		return nil, err
	}

	out := []Record{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(perPage))
		q.Set("sort", "-created")
		if filter != "" {
			q.Set("filter", filter)
		}

		var resp listResponse
		if err := c.do(ctx, http.MethodGet, "/api/collections/"+collection+"/records", q, nil, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Items {
			r.Kind = kind
			r.Collection = collection
			out = append(out, r)
		}
		if page >= resp.TotalPages || len(resp.Items) == 0 {
			break
		}
	}
	return out, nil
}

// Create adds r to the collection of kind, owned by the signed-in user if any.
func (c *Client) Create(ctx context.Context, kind contents.Kind, r Record) (Record, error) {
	collection, err := Collection(kind)
	if err != nil {
		return Record{}, err
	}

	r.ID = ""
	r.Collection = ""
	r.Tags = contents.NormalizeTags(r.Tags)
	if s := c.Session(); s != nil {
		r.User = s.UserID
	}

	var created Record
	if err := c.do(ctx, http.MethodPost, "/api/collections/"+collection+"/records", nil, r, &created); err != nil {
		return Record{}, err
	}
	created.Kind = kind
	created.Collection = collection

	c.log.Info(ctx, "remote record created", "collection", collection, "id", created.ID)
	return created, nil
}

// Delete removes record id from the collection of kind.
func (c *Client) Delete(ctx context.Context, kind contents.Kind, id string) error {
	collection, err := Collection(kind)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/api/collections/"+collection+"/records/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return err
	}
	c.log.Info(ctx, "remote record deleted", "collection", collection, "id", id)
	return nil
}

func (c *Client) userFilter() string {
	s := c.Session()
	if s == nil || s.UserID == "" {
		return ""
	}
	return "user = " + quoteFilter(s.UserID)
}

// quoteFilter renders s as a double-quoted filter literal.
func quoteFilter(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote marshal: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("remote request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if s := c.Session(); s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "remote call failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %s %s: %w", ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var er errorResponse
		if json.Unmarshal(respBody, &er) == nil && er.Message != "" {
			msg = er.Message
		}
		c.log.Warn(ctx, "remote call rejected", "method", method, "path", path, "status", resp.StatusCode)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decode %s %s: %w", ErrRemoteUnavailable, method, path, err)
		}
	}
	return nil
}
