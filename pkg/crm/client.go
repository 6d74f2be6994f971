// Package crm provides a typed HTTP client set for the upstream CRM's
// versioned REST API. A Client is constructed once per resolved credential
// set: it is pinned to the tenant's base URL (https://<domain>/api/v1),
// authenticates every call with the tenant's API token, and funnels every
// outbound request through the shared process-wide rate limiter. The resource
// services (Deals, Persons, ...) all delegate to the same internal core, so
// holding a reference to any of them cannot bypass the limiter.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/salespipe/crm-mcp-server/pkg/ratelimit"
)

const apiTokenParam = "api_token"

// Options configure a Client beyond its credentials.
type Options struct {
	// HTTPClient overrides the underlying HTTP client. Defaults to a client
	// with a 30s timeout.
	HTTPClient *http.Client
	// Limiter gates outbound calls. Required for production use; when nil a
	// private default limiter is created (useful in tests).
	Limiter *ratelimit.Limiter
	// BaseURL overrides the https://<domain>/api/v1 derivation. Tests point
	// this at an httptest server.
	BaseURL string
}

// Client is one tenant's authenticated view of the upstream API.
type Client struct {
	core *core

	Deals         *DealsService
	Persons       *PersonsService
	Organizations *OrganizationsService
	Pipelines     *PipelinesService
	Stages        *StagesService
	Users         *UsersService
	Notes         *NotesService
	Search        *SearchService
}

// New builds a Client for the given tenant domain and API token. The domain
// is used verbatim as the host part of the base URL, so it may carry a port.
func New(domain, apiToken string, opts *Options) (*Client, error) {
	if domain == "" {
		return nil, fmt.Errorf("crm: tenant domain is required")
	}
	if apiToken == "" {
		return nil, fmt.Errorf("crm: api token is required")
	}
	options := Options{}
	if opts != nil {
		options = *opts
	}
	rawBase := options.BaseURL
	if rawBase == "" {
		rawBase = "https://" + domain + "/api/v1"
	}
	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("crm: parse base URL: %w", err)
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := options.Limiter
	if limiter == nil {
		limiter = ratelimit.New(nil)
	}

	c := &core{
		baseURL:    base,
		apiToken:   apiToken,
		httpClient: httpClient,
		limiter:    limiter,
	}
	return &Client{
		core:          c,
		Deals:         &DealsService{core: c},
		Persons:       &PersonsService{core: c},
		Organizations: &OrganizationsService{core: c},
		Pipelines:     &PipelinesService{core: c},
		Stages:        &StagesService{core: c},
		Users:         &UsersService{core: c},
		Notes:         &NotesService{core: c},
		Search:        &SearchService{core: c},
	}, nil
}

// APIError is a failed upstream call: either a non-2xx status or a response
// envelope with success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("crm: upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("crm: %s (status %d)", e.Message, e.StatusCode)
}

// envelope is the upstream response wrapper shared by every endpoint.
type envelope struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	Error          string          `json:"error"`
	ErrorInfo      string          `json:"error_info,omitempty"`
	AdditionalData *AdditionalData `json:"additional_data,omitempty"`
}

// AdditionalData carries pagination metadata for list endpoints.
type AdditionalData struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the window of a list response.
type Pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
}

// ListOptions select a pagination window for list endpoints.
type ListOptions struct {
	Start int
	Limit int
}

func (o *ListOptions) apply(q url.Values) {
	if o == nil {
		return
	}
	if o.Start > 0 {
		q.Set("start", fmt.Sprint(o.Start))
	}
	if o.Limit > 0 {
		q.Set("limit", fmt.Sprint(o.Limit))
	}
}

// core performs the actual HTTP exchange. All services share one core.
type core struct {
	baseURL    *url.URL
	apiToken   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// get issues a rate-limited GET for path, decodes the envelope, and unmarshals
// the data payload into out (which may be nil to discard it).
func (c *core) get(ctx context.Context, path string, query url.Values, out any) (*AdditionalData, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query == nil {
		query = url.Values{}
	}
	query.Set(apiTokenParam, c.apiToken)
	u.RawQuery = query.Encode()

	var env envelope
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("crm: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("crm: %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("crm: read response: %w", err)
		}
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return &APIError{StatusCode: resp.StatusCode}
			}
			return fmt.Errorf("crm: decode response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
			msg := env.Error
			if env.ErrorInfo != "" {
				msg += ": " + env.ErrorInfo
			}
			return &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("crm: decode %s payload: %w", path, err)
		}
	}
	return env.AdditionalData, nil
}
