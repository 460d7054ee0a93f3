package optery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
)

// APIError is a non-2xx response from the Optery API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("optery: http %d: %s", e.Status, e.Body)
}

// Transient reports whether the request may succeed if retried.
func (e *APIError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// ScanAPIError is an in-band error object returned with a 200 status.
type ScanAPIError struct {
	Message string
}

func (e *ScanAPIError) Error() string {
	return "optery: scan API error: " + e.Message
}

// ErrMalformedResponse marks a response body whose shape does not match the
// documented API. Never retried.
var ErrMalformedResponse = errors.New("optery: malformed response")

// IsTransient classifies an error from this client: server-side and network
// failures are retryable, client errors and structural errors are not.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var scanErr *ScanAPIError
	if errors.As(err, &scanErr) {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	// request never reached the API (connection reset, timeout, DNS)
	return true
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	base := cfg.OpteryBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		baseURL: base,
		token:   cfg.OpteryAPIKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(data)
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, &APIError{Status: resp.StatusCode, Body: detail}
	}
	return data, nil
}

// GetScans lists the scans recorded for a member and returns the raw payload
// alongside the extracted scan ids. An in-band error object or a body that is
// not a list of scan descriptors is a terminal error.
func (c *Client) GetScans(ctx context.Context, memberUUID string) (json.RawMessage, []string, error) {
	body, err := c.do(ctx, http.MethodGet, "v1/optouts/"+memberUUID+"/get-scans", nil, "application/json")
	if err != nil {
		return nil, nil, err
	}

	var errObj struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errObj) == nil && errObj.Error != "" {
		return body, nil, &ScanAPIError{Message: errObj.Error}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var items []map[string]interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("%w: expected a scan list", ErrMalformedResponse)
	}

	var scanIDs []string
	for _, item := range items {
		switch v := item["scan_id"].(type) {
		case string:
			if v != "" {
				scanIDs = append(scanIDs, v)
			}
		case json.Number:
			scanIDs = append(scanIDs, v.String())
		}
	}
	return body, scanIDs, nil
}

// GetScreenshotsByScan fetches the screenshot set of one scan. A 200 with an
// unparseable body degrades to an empty object, matching what gets persisted.
func (c *Client) GetScreenshotsByScan(ctx context.Context, memberUUID, scanID string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "v1/optouts/"+memberUUID+"/get-screenshots-by-scan/"+scanID, nil, "application/json")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return json.RawMessage(`{}`), nil
	}
	return body, nil
}

// MemberInput is the profile registered with Optery for scanning.
type MemberInput struct {
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	LastName      string `json:"last_name"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	BirthdayDay   int    `json:"birthday_day"`
	BirthdayMonth int    `json:"birthday_month"`
	BirthdayYear  int    `json:"birthday_year"`
	Plan          string `json:"plan,omitempty"`
	PostponeScan  bool   `json:"postpone_scan"`
	GroupTag      string `json:"group_tag,omitempty"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2,omitempty"`
	ZipCode       string `json:"zip_code"`
}

// CreateMember registers a member with the scan provider and returns the raw
// provider response (which carries the member uuid).
func (c *Client) CreateMember(ctx context.Context, input MemberInput) (json.RawMessage, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "v1/members", bytes.NewReader(payload), "application/json")
}

// CustomRemovalInput is a manual opt-out request with an evidence document.
type CustomRemovalInput struct {
	Email     string
	BrokerURL string
	Details   string
	FileName  string
	File      io.Reader
}

// SubmitCustomRemoval uploads a custom removal request as multipart form data.
func (c *Client) SubmitCustomRemoval(ctx context.Context, input CustomRemovalInput) (json.RawMessage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	_ = w.WriteField("email", input.Email)
	_ = w.WriteField("broker_url", input.BrokerURL)
	_ = w.WriteField("details", input.Details)

	if input.File != nil {
		part, err := w.CreateFormFile("file", input.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, input.File); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.do(ctx, http.MethodPost, "v1/custom-removals", &buf, w.FormDataContentType())
}

// ListDataBrokers proxies the provider's broker catalog.
func (c *Client) ListDataBrokers(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "v1/databrokers/data", nil, "application/json")
}
