package client

// http_client.go talks to the YaMDb REST API on behalf of the CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"yamdb/internal/microservices/http-api/dto"
)

// APIError is any non-2xx answer. Fields holds the decoded error body when the
// server sent one.
type APIError struct {
	Status int
	Fields map[string]any
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Fields[k]))
	}
	return fmt.Sprintf("request failed with status %d (%s)", e.Status, strings.Join(parts, "; "))
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// TitleFilter mirrors the query parameters of GET /titles.
type TitleFilter struct {
	Name     string
	Year     int
	Genre    string
	Category string
	Limit    int
	Offset   int
}

func (f TitleFilter) values() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.Genre != "" {
		q.Set("genre", f.Genre)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	setPage(q, f.Limit, f.Offset)
	return q
}

func setPage(q url.Values, limit, offset int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
}

func (c *HTTPClient) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	var out dto.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Token(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	var out dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/token", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListTitles(ctx context.Context, f TitleFilter) (*dto.Paginated[dto.TitleResponse], error) {
	var out dto.Paginated[dto.TitleResponse]
	if err := c.do(ctx, http.MethodGet, "/titles", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetTitle(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	var out dto.TitleResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/titles/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListReviews(ctx context.Context, titleID int64, limit, offset int) (*dto.Paginated[dto.ReviewResponse], error) {
	q := url.Values{}
	setPage(q, limit, offset)

	var out dto.Paginated[dto.ReviewResponse]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/titles/%d/reviews", titleID), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateReview(ctx context.Context, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	var out dto.ReviewResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/titles/%d/reviews", titleID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		// best effort, the body may not be JSON
		_ = json.NewDecoder(resp.Body).Decode(&apiErr.Fields)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
