// Package client is the Go counterpart of the mobile app's API layer: it
// keeps the session credential, attaches it to every call and logs the user
// out when the server rejects it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
)

const defaultTimeout = 15 * time.Second

// ErrNotAuthenticated is returned by calls that need a credential when the session has none.
var ErrNotAuthenticated = errors.New("client: not authenticated")

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Pagination mirrors the server's list window.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// LastLocation is a technician's most recent report.
type LastLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FleetEntry is one row of the technician fleet view.
type FleetEntry struct {
	ID           uint          `json:"id"`
	Name         string        `json:"name"`
	Username     string        `json:"username"`
	Phone        *string       `json:"phone"`
	CompanyID    *uint         `json:"company_id"`
	CompanyName  *string       `json:"company_name"`
	LastLocation *LastLocation `json:"last_location"`
	IsOnline     bool          `json:"is_online"`
}

// InterventionQuery filters ListInterventions. Zero fields are omitted.
type InterventionQuery struct {
	Status       string
	TechnicianID uint
	CompanyID    uint
	Search       string
	Page         int
	Limit        int
}

func (q InterventionQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.TechnicianID != 0 {
		v.Set("technician_id", strconv.FormatUint(uint64(q.TechnicianID), 10))
	}
	if q.CompanyID != 0 {
		v.Set("company_id", strconv.FormatUint(uint64(q.CompanyID), 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Client calls the SolarTech API on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API rooted at baseURL (e.g. https://api.example.com).
func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "api_client"))
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// Login exchanges credentials for a session credential and stores it.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	body := map[string]string{"username": username, "password": password}

	var result struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expires_at"`
		User      models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, false, &result); err != nil {
		return nil, err
	}

	c.session.Set(result.Token, policy.Identity{
		UserID:    result.User.ID,
		Username:  result.User.Username,
		Role:      result.User.Role,
		CompanyID: result.User.CompanyID,
	})
	return &result.User, nil
}

// Logout forgets the session locally.
func (c *Client) Logout() {
	c.session.Clear()
}

// ListInterventions returns one page of the caller's visible interventions.
func (c *Client) ListInterventions(ctx context.Context, query InterventionQuery) ([]models.Intervention, Pagination, error) {
	path := "/api/v1/interventions"
	if encoded := query.values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page struct {
		Data       []models.Intervention `json:"data"`
		Pagination Pagination            `json:"pagination"`
	}
	if err := c.send(ctx, http.MethodGet, path, nil, true, &page); err != nil {
		return nil, Pagination{}, err
	}
	return page.Data, page.Pagination, nil
}

// allInterventionsPageLimit is the largest page the server hands out.
const allInterventionsPageLimit = 100

// ListAllInterventions walks every page of ListInterventions and returns the
// whole visible work list. Page and Limit in query are ignored.
func (c *Client) ListAllInterventions(ctx context.Context, query InterventionQuery) ([]models.Intervention, error) {
	query.Limit = allInterventionsPageLimit
	var all []models.Intervention
	for page := 1; ; page++ {
		query.Page = page
		items, pagination, err := c.ListInterventions(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || page >= pagination.TotalPages {
			return all, nil
		}
	}
}

// UpdateInterventionStatus sets the status of an intervention.
func (c *Client) UpdateInterventionStatus(ctx context.Context, id uint, status models.Status) (*models.Intervention, error) {
	var intervention models.Intervention
	path := fmt.Sprintf("/api/v1/interventions/%d/status", id)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"status": string(status)}, true, &intervention); err != nil {
		return nil, err
	}
	return &intervention, nil
}

// ReportLocation sends the device position. accuracy may be nil.
func (c *Client) ReportLocation(ctx context.Context, latitude, longitude float64, accuracy *float64) error {
	body := map[string]interface{}{"latitude": latitude, "longitude": longitude}
	if accuracy != nil {
		body["accuracy"] = *accuracy
	}
	return c.do(ctx, http.MethodPost, "/api/v1/locations/update", body, true, nil)
}

// ListTechnicianLocations returns the fleet view for the session's scope.
func (c *Client) ListTechnicianLocations(ctx context.Context) ([]FleetEntry, error) {
	var entries []FleetEntry
	if err := c.do(ctx, http.MethodGet, "/api/v1/locations/technicians", nil, true, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do performs a call and decodes the "data" member of the envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, authenticated bool, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.send(ctx, method, path, body, authenticated, &envelope); err != nil {
		return err
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, authenticated bool, out interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	var token string
	if authenticated {
		token = c.session.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.logger.WarnContext(ctx, "request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", apiErr.StatusCode),
			slog.String("code", apiErr.Code),
		)
		// a failed login is a wrong password, not an expired session
		if apiErr.StatusCode == http.StatusUnauthorized && authenticated {
			c.session.expireIf(token)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Code = http.StatusText(resp.StatusCode)
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
