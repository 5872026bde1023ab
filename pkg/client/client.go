// Package client is a Go client for the Tanad REST API. Resource wraps the
// CRUD endpoints of one entity and Store keeps a filtered, sorted and
// editable local copy of its records.
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
	"time"

	"github.com/sikka-software/Tanad-sub009/pkg/listing"
)

// DefaultPrefix is the path every resource is served under
const DefaultPrefix = "/api/resource"

// Error is returned for every non-2xx response. Message is generic; the
// server's error body is not exposed.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client is an HTTP client for the Tanad API
type Client struct {
	httpClient *http.Client
	baseURL    string
	prefix     string
	token      string
	headers    map[string]string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends token as the bearer access token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithPrefix sets the resource path prefix (default /api/resource)
func WithPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = "/" + strings.Trim(prefix, "/")
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a new Client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     DefaultPrefix,
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the response body of every endpoint
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
}

// Meta is the pagination of a list response
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// do sends a request. Any transport failure or non-2xx status is reported as
// an *Error carrying failMsg.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, failMsg string) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Message: failMsg}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{Status: resp.StatusCode, Message: failMsg}
	}
	if resp.StatusCode == http.StatusNoContent {
		return &envelope{Success: true}, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: failMsg}
	}
	return &env, nil
}

// ListOptions are the paging and list rules of a List call
type ListOptions struct {
	Page     int
	PageSize int
	Query    listing.Query
}

func (o ListOptions) values() url.Values {
	values := listing.Encode(o.Query)
	if o.Page > 0 {
		values.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return values
}

// Page is one page of records
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// Resource calls the CRUD endpoints of one resource
type Resource[T any] struct {
	client *Client
	name   string
}

// NewResource returns the service of the resource called name, e.g. "clients"
func NewResource[T any](c *Client, name string) *Resource[T] {
	return &Resource[T]{client: c, name: name}
}

// Name returns the resource name
func (r *Resource[T]) Name() string {
	return r.name
}

func (r *Resource[T]) path(parts ...string) string {
	p := r.client.prefix + "/" + url.PathEscape(r.name)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (r *Resource[T]) one(env *envelope, failMsg string) (*T, error) {
	var item T
	if err := json.Unmarshal(env.Data, &item); err != nil {
		return nil, &Error{Status: http.StatusOK, Message: failMsg}
	}
	return &item, nil
}

// List fetches one page of records
func (r *Resource[T]) List(ctx context.Context, opts ListOptions) (*Page[T], error) {
	msg := "Failed to fetch " + r.name
	env, err := r.client.do(ctx, http.MethodGet, r.path(), opts.values(), nil, msg)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{Items: []T{}}
	if err := json.Unmarshal(env.Data, &page.Items); err != nil {
		return nil, &Error{Status: http.StatusOK, Message: msg}
	}
	if env.Meta != nil {
		page.Meta = *env.Meta
	}
	return page, nil
}

// Get fetches one record
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	msg := "Failed to fetch " + r.name
	env, err := r.client.do(ctx, http.MethodGet, r.path(id), nil, nil, msg)
	if err != nil {
		return nil, err
	}
	return r.one(env, msg)
}

// Create creates a record from body
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	msg := "Failed to create " + r.name
	env, err := r.client.do(ctx, http.MethodPost, r.path(), nil, body, msg)
	if err != nil {
		return nil, err
	}
	return r.one(env, msg)
}

// Update changes the fields present in patch
func (r *Resource[T]) Update(ctx context.Context, id string, patch map[string]any) (*T, error) {
	msg := "Failed to update " + r.name
	env, err := r.client.do(ctx, http.MethodPatch, r.path(id), nil, patch, msg)
	if err != nil {
		return nil, err
	}
	return r.one(env, msg)
}

// Delete removes one record
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.do(ctx, http.MethodDelete, r.path(id), nil, nil, "Failed to delete "+r.name)
	return err
}

// DeleteMany removes every record in ids, or none of them
func (r *Resource[T]) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	msg := "Failed to delete " + r.name
	env, err := r.client.do(ctx, http.MethodDelete, r.path(), nil, map[string]any{"ids": ids}, msg)
	if err != nil {
		return 0, err
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return 0, &Error{Status: http.StatusOK, Message: msg}
	}
	return out.Deleted, nil
}

// Duplicate copies a record and returns the copy
func (r *Resource[T]) Duplicate(ctx context.Context, id string) (*T, error) {
	msg := "Failed to duplicate " + r.name
	env, err := r.client.do(ctx, http.MethodPost, r.path(id, "duplicate"), nil, nil, msg)
	if err != nil {
		return nil, err
	}
	return r.one(env, msg)
}
