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

	"github.com/alfredjeanlab/scout/internal/model"
)

// upsertHeader mirrors server.UpsertHeader without importing the server.
const upsertHeader = "X-Scout-Upsert"

// HTTPClient implements ScoutClient using the scout HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8090"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Templates ---

func (c *HTTPClient) GetTemplate(ctx context.Context, req *GetTemplateRequest) (*model.Template, error) {
	q := url.Values{}
	if req != nil && req.Identity != "" {
		q.Set("uuid", req.Identity)
		if req.Version != nil {
			q.Set("version", strconv.Itoa(*req.Version))
		}
	}
	path := "/template"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var t model.Template
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]model.Summary, error) {
	var out []model.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Records ---

func (c *HTTPClient) ListRecords(ctx context.Context, kind model.Kind, since *time.Time) ([]*model.Record, error) {
	path := "/" + url.PathEscape(string(kind))
	if since != nil {
		path += "?since=" + strconv.FormatInt(since.UnixMilli(), 10)
	}
	var out []*model.Record
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UpsertRecord(ctx context.Context, kind model.Kind, rec *model.Record) (*UpsertResponse, error) {
	data, header, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(string(kind)), rec)
	if err != nil {
		return nil, err
	}
	var stored model.Record
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &UpsertResponse{Record: &stored, Outcome: header.Get(upsertHeader)}, nil
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, kind model.Kind, id string) (bool, error) {
	var resp struct {
		Success bool `json:"success"`
	}
	body := map[string]string{"recordId": id}
	if err := c.doJSON(ctx, http.MethodDelete, "/"+url.PathEscape(string(kind)), body, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *HTTPClient) ExportCSV(ctx context.Context, kind model.Kind) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(string(kind))+"/csv", nil)
	return data, err
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	data, _, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// do performs the request and returns the raw body and headers of a
// successful response. Error responses become *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return respBody, resp.Header, nil
}
