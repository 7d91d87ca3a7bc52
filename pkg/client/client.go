// Package client is a typed HTTP client for the notula API. Each resource has
// its own service with explicit fetch and mutate calls; nothing is cached, so
// callers decide when to refetch and can cancel a stale request via its context.
package client

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

	"github.com/charlesng35/notula/pkg/response"
)

const defaultTimeout = 30 * time.Second

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:5000".
	BaseURL string
	// Token is an initial bearer token. Login and Register replace it.
	Token string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
}

// Client talks to the notula REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string

	Auth          *AuthService
	Meetings      *MeetingService
	Attendance    *AttendanceService
	Minutes       *MinutesService
	Notifications *NotificationService
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("client: invalid base url %q: %w", base, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	c := &Client{baseURL: base, httpClient: httpClient, token: cfg.Token}
	c.Auth = &AuthService{client: c}
	c.Meetings = &MeetingService{client: c}
	c.Attendance = &AttendanceService{client: c}
	c.Minutes = &MinutesService{client: c}
	c.Notifications = &NotificationService{client: c}
	return c, nil
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Page selects one page of a list endpoint. Zero values use the server defaults.
type Page struct {
	Page  int
	Limit int
}

func (p Page) apply(query url.Values) {
	if p.Page > 0 {
		query.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		query.Set("limit", strconv.Itoa(p.Limit))
	}
}

// Pagination echoes the page metadata of a list response.
type Pagination = response.Pagination

// List is one page of results.
type List[T any] struct {
	Items      []T
	Pagination Pagination
}

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Error      *response.ErrorInfo `json:"error"`
	Pagination *Pagination         `json:"pagination"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (*Pagination, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPost, path, body, out)
	return err
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPut, path, body, out)
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// do sends one request and decodes the envelope. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (*Pagination, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("client: decode response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, env)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("client: decode data: %w", err)
		}
	}
	return env.Pagination, nil
}

// download fetches a binary body, returning it with the server-suggested filename.
func (c *Client) download(ctx context.Context, path string) (*Document, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, newAPIError(resp.StatusCode, env)
	}

	doc := &Document{
		ContentType: resp.Header.Get("Content-Type"),
		Content:     raw,
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
	}
	if pages, err := strconv.Atoi(resp.Header.Get("X-Page-Count")); err == nil {
		doc.Pages = pages
	}
	return doc, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func filenameFromDisposition(header string) string {
	const key = "filename="
	idx := strings.Index(header, key)
	if idx == -1 {
		return ""
	}
	name := strings.TrimSpace(header[idx+len(key):])
	if unquoted, err := strconv.Unquote(name); err == nil {
		return unquoted
	}
	return strings.Trim(name, `"`)
}

func listOf[T any](items []T, pagination *Pagination) *List[T] {
	list := &List[T]{Items: items}
	if pagination != nil {
		list.Pagination = *pagination
	}
	if list.Items == nil {
		list.Items = []T{}
	}
	return list
}
