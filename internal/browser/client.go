package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"catalog-admin/internal/catalogtypes"
)

// FilesAPI is the catalog file backend as the browser sees it. dir is always normalized.
type FilesAPI interface {
	List(ctx context.Context, dir string) (*catalogtypes.FilesResponse, error)
	CreateFolder(ctx context.Context, dir, name string) error
	Upload(ctx context.Context, dir string, file File) error
	Delete(ctx context.Context, dir, path string) error
}

// TokenSource supplies the bearer token attached to requests. "" sends none.
type TokenSource interface {
	Token() string
}

// File is one selected file.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Client talks to the catalog API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	tokens TokenSource
}

// NewClient creates a Client. baseURL includes the base path, e.g.
// "http://localhost:8081/catalogointerativo". A nil httpClient uses a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// UseTokens sets the source of the bearer token.
func (c *Client) UseTokens(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) filesURL(query url.Values) string {
	u := c.baseURL + "/api/files"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// List implements FilesAPI.
func (c *Client) List(ctx context.Context, dir string) (*catalogtypes.FilesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.filesURL(url.Values{"dir": {dir}}), nil)
	if err != nil {
		return nil, &UnexpectedError{Op: OpLoad, Err: err}
	}
	var resp catalogtypes.FilesResponse
	if err := c.do(req, OpLoad, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateFolder implements FilesAPI.
func (c *Client) CreateFolder(ctx context.Context, dir, name string) error {
	return c.postForm(ctx, OpCreateFolder, map[string]string{
		"action":     "createFolder",
		"dir":        dir,
		"folderName": name,
	}, nil)
}

// Upload implements FilesAPI.
func (c *Client) Upload(ctx context.Context, dir string, file File) error {
	return c.postForm(ctx, OpUpload, map[string]string{
		"action": "upload",
		"dir":    dir,
	}, &file)
}

// Delete implements FilesAPI. The backend decides whether path is a folder or a file.
func (c *Client) Delete(ctx context.Context, dir, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.filesURL(url.Values{"dir": {dir}, "path": {path}}), nil)
	if err != nil {
		return &UnexpectedError{Op: OpDelete, Err: err}
	}
	return c.do(req, OpDelete, nil)
}

func (c *Client) postForm(ctx context.Context, op Op, fields map[string]string, file *File) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, k := range []string{"action", "dir", "folderName"} {
		if v, ok := fields[k]; ok {
			if err := w.WriteField(k, v); err != nil {
				return &UnexpectedError{Op: op, Err: err}
			}
		}
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", file.Name)
		if err != nil {
			return &UnexpectedError{Op: op, Err: err}
		}
		if _, err := io.Copy(fw, file.Reader); err != nil {
			return &UnexpectedError{Op: op, Err: fmt.Errorf("read %s: %w", file.Name, err)}
		}
	}
	if err := w.Close(); err != nil {
		return &UnexpectedError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.filesURL(nil), &body)
	if err != nil {
		return &UnexpectedError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, op, nil)
}

// Login exchanges the admin password for a session token.
func (c *Client) Login(ctx context.Context, password string) (string, time.Time, error) {
	payload, _ := json.Marshal(map[string]string{"password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session", bytes.NewReader(payload))
	if err != nil {
		return "", time.Time{}, &UnexpectedError{Op: OpLogin, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := c.do(req, OpLogin, &out); err != nil {
		return "", time.Time{}, err
	}
	return out.Token, out.ExpiresAt, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/session", nil)
	if err != nil {
		return &UnexpectedError{Op: OpLogout, Err: err}
	}
	return c.do(req, OpLogout, nil)
}

// errorBody 是服务端错误响应 {error, message, timestamp}。
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends req and applies the shared failure policy: a non-2xx body is parsed as JSON
// and its message (or error) becomes a BackendError; transport and decode failures
// become an UnexpectedError.
func (c *Client) do(req *http.Request, op Op, out interface{}) error {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnexpectedError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return &UnexpectedError{Op: op, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
		}
		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &BackendError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UnexpectedError{Op: op, Err: err}
	}
	return nil
}
