package crm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("corp.example.com", "secret-token", &Options{
		HTTPClient: server.Client(),
		BaseURL:    server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestClientSendsAPITokenQueryParam(t *testing.T) {
	t.Parallel()

	var gotToken, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("api_token")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"id":1,"name":"Acme"}]}`))
	}))

	orgs, _, err := client.Organizations.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("Organizations.List: %v", err)
	}
	if gotToken != "secret-token" {
		t.Fatalf("api_token param = %q, want %q", gotToken, "secret-token")
	}
	if gotPath != "/api/v1/organizations" {
		t.Fatalf("path = %q, want /api/v1/organizations", gotPath)
	}
	if len(orgs) != 1 || orgs[0].Name != "Acme" {
		t.Fatalf("unexpected organizations: %#v", orgs)
	}
}

func TestClientDecodesDealsAndPagination(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("limit param = %q, want 2", got)
		}
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"id": 7, "title": "Big deal", "value": 1200.5, "currency": "USD", "status": "open"},
				{"id": 8, "title": "Small deal", "value": 80, "currency": "EUR", "status": "won"}
			],
			"additional_data": {"pagination": {"start": 0, "limit": 2, "more_items_in_collection": true}}
		}`))
	}))

	deals, meta, err := client.Deals.List(context.Background(), &ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Deals.List: %v", err)
	}
	if len(deals) != 2 {
		t.Fatalf("expected 2 deals, got %d", len(deals))
	}
	if deals[0].Title != "Big deal" || deals[0].Value != 1200.5 {
		t.Fatalf("first deal mismatch: %#v", deals[0])
	}
	if len(deals[0].Raw) == 0 {
		t.Fatalf("expected raw payload to be preserved")
	}
	if meta == nil || meta.Pagination == nil || !meta.Pagination.MoreItemsInCollection {
		t.Fatalf("pagination metadata not decoded: %#v", meta)
	}
}

func TestClientSurfacesEnvelopeErrors(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"invalid api token"}`))
	}))

	_, err := client.Deals.Get(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Message != "invalid api token" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestClientSurfacesNonJSONFailures(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := client.Pipelines.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", apiErr.StatusCode)
	}
}

func TestClientSearchRequiresTerm(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach upstream")
	}))

	if _, err := client.Search.All(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty term")
	}
}

func TestClientSearchDecodesItems(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("term"); got != "acme" {
			t.Errorf("term = %q, want acme", got)
		}
		w.Write([]byte(`{"success":true,"data":{"items":[{"result_score":0.9,"type":"deal","item":{"id":3}}]}}`))
	}))

	items, err := client.Search.All(context.Background(), "acme", nil)
	if err != nil {
		t.Fatalf("Search.All: %v", err)
	}
	if len(items) != 1 || items[0].Type != "deal" {
		t.Fatalf("unexpected items: %#v", items)
	}
}

func TestNewValidatesCredentials(t *testing.T) {
	t.Parallel()

	if _, err := New("", "token", nil); err == nil {
		t.Fatalf("expected error for empty domain")
	}
	if _, err := New("corp.example.com", "", nil); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
