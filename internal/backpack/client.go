package backpack

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/takak2166/backpack2keepassx/internal/logger"
	"github.com/takak2166/backpack2keepassx/internal/models"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 1 * time.Second
	defaultTimeout    = 30 * time.Second
)

// APIError is returned when Backpack rejects a request
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backpack API error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backpack API returned status %d", e.StatusCode)
}

func (e *APIError) temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client reads pages and notes from the Backpack XML API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry sets how many times a request is attempted and the delay between attempts
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.retryDelay = delay
	}
}

// New creates a client for the account's Backpack site
func New(username, token string, opts ...Option) (*Client, error) {
	if username == "" {
		return nil, fmt.Errorf("backpack username is not set")
	}
	if token == "" {
		return nil, fmt.Errorf("backpack token is not set")
	}

	c := &Client{
		baseURL:    fmt.Sprintf("https://%s.backpackit.com", url.PathEscape(username)),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	XMLName xml.Name `xml:"request"`
	Token   string   `xml:"token"`
}

type status struct {
	Success string `xml:"success,attr"`
	Error   *struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"error"`
}

type pageXML struct {
	ID    string    `xml:"id,attr"`
	Title string    `xml:"title,attr"`
	Notes []noteXML `xml:"notes>note"`
}

type noteXML struct {
	ID        string `xml:"id,attr"`
	Title     string `xml:"title,attr"`
	CreatedAt string `xml:"created_at,attr"`
	Content   string `xml:",chardata"`
}

type listResponse struct {
	XMLName xml.Name `xml:"response"`
	status
	Pages []pageXML `xml:"pages>page"`
}

type showResponse struct {
	XMLName xml.Name `xml:"response"`
	status
	Page *pageXML `xml:"page"`
}

// ListPages returns the ID and title of every page in the account
func (c *Client) ListPages(ctx context.Context) ([]models.Page, error) {
	var resp listResponse
	if err := c.call(ctx, "/ws/pages/all", &resp, &resp.status); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	pages := make([]models.Page, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		pages = append(pages, models.Page{ID: p.ID, Title: p.Title})
	}

	logger.Debug("Listed Backpack pages", map[string]interface{}{
		"pages_count": len(pages),
	})
	return pages, nil
}

// GetPage returns the page with all of its notes
func (c *Client) GetPage(ctx context.Context, id string) (*models.Page, error) {
	var resp showResponse
	if err := c.call(ctx, "/ws/page/"+url.PathEscape(id), &resp, &resp.status); err != nil {
		return nil, fmt.Errorf("failed to fetch page %s: %w", id, err)
	}
	if resp.Page == nil {
		return nil, fmt.Errorf("failed to fetch page %s: response has no page", id)
	}

	page := &models.Page{ID: resp.Page.ID, Title: resp.Page.Title}
	for _, n := range resp.Page.Notes {
		page.Notes = append(page.Notes, models.Note{
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
		})
	}
	return page, nil
}

// call posts the token to path and decodes the response into out. Network
// errors and 5xx responses are retried.
func (c *Client) call(ctx context.Context, path string, out interface{}, st *status) error {
	body, err := xml.Marshal(request{Token: c.token})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var data []byte
	for attempt := 1; ; attempt++ {
		data, err = c.do(ctx, path, body)
		if err == nil {
			break
		}

		var apiErr *APIError
		retryable := !errors.As(err, &apiErr) || apiErr.temporary()
		if !retryable || attempt >= c.attempts || ctx.Err() != nil {
			return err
		}

		logger.Debug("Retrying Backpack request", map[string]interface{}{
			"path":    path,
			"attempt": attempt,
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	if err := xml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if st.Success != "true" {
		apiErr := &APIError{StatusCode: http.StatusOK}
		if st.Error != nil {
			apiErr.Code = st.Error.Code
			apiErr.Message = strings.TrimSpace(st.Error.Message)
		}
		return apiErr
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-POST_DATA_FORMAT", "xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
