package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

var (
	ErrNoSession     = errors.New("session id is not set, authenticate first")
	ErrClosed        = errors.New("exchange client is closed")
	ErrMissingURL    = errors.New("base URL must be set")
	ErrMissingType   = errors.New("exchange type must be set")
	ErrEmptyFilename = errors.New("filename must not be empty")
)

// Config describes the endpoint and the protocol parameters sent with each request
type Config struct {
	BaseURL  string
	Login    string
	Password string
	Type     string
	Version  string
}

// Client issues exchange protocol requests. It owns the HTTP session for one
// run and must be closed when the run ends.
type Client struct {
	config     Config
	httpClient *http.Client
	session    *Session

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewClient creates a client. A nil httpClient uses a fresh http.Client with
// default timeouts; the client's cookie jar is replaced by the session's.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingURL
	}
	if cfg.Type == "" {
		return nil, ErrMissingType
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	session, err := newSession()
	if err != nil {
		return nil, err
	}

	hc := &http.Client{}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	hc.Jar = session.jar

	return &Client{
		config:     cfg,
		httpClient: hc,
		session:    session,
	}, nil
}

// SessionID returns the current sessid
func (c *Client) SessionID() string {
	return c.session.ID()
}

// SetSessionID stores the sessid obtained from checkauth
func (c *Client) SetSessionID(id string) {
	c.session.setID(id)
}

// CheckAuth requests mode=checkauth
func (c *Client) CheckAuth(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, ModeCheckAuth, nil, nil)
}

// Init requests mode=init
func (c *Client) Init(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, ModeInit, nil, nil)
}

// SendFile posts one chunk of filename with mode=file
func (c *Client) SendFile(ctx context.Context, filename string, chunk []byte) (*Response, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	return c.do(ctx, http.MethodPost, ModeFile, url.Values{"filename": {filename}}, chunk)
}

// Import requests mode=import for filename
func (c *Client) Import(ctx context.Context, filename string) (*Response, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	return c.do(ctx, http.MethodGet, ModeImport, url.Values{"filename": {filename}}, nil)
}

// Close releases pooled connections and forgets the session. Calling it more
// than once is safe; only the first call does work.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.httpClient.CloseIdleConnections()
		c.session.clear()
	})
	return nil
}

func (c *Client) buildURL(mode Mode, extra url.Values) (string, error) {
	q := url.Values{}
	q.Set("type", c.config.Type)
	q.Set("mode", string(mode))

	if mode != ModeCheckAuth {
		sessid := c.session.ID()
		if sessid == "" {
			return "", ErrNoSession
		}
		q.Set("sessid", sessid)
		if c.config.Version != "" {
			q.Set("version", c.config.Version)
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	sep := "?"
	if strings.Contains(c.config.BaseURL, "?") {
		sep = "&"
	}
	return c.config.BaseURL + sep + q.Encode(), nil
}

func (c *Client) do(ctx context.Context, method string, mode Mode, extra url.Values, body []byte) (*Response, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	target, err := c.buildURL(mode, extra)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", mode, err)
	}
	if c.config.Login != "" || c.config.Password != "" {
		req.SetBasicAuth(c.config.Login, c.config.Password)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", mode, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", mode, err)
	}

	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Body:       string(data),
	}, nil
}
