// Package testutil provides testing utilities for the Petfinder ingestion pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// DefaultToken is the bearer token issued by the mock token endpoint.
const DefaultToken = "test-token"

// MockPetfinder is a configurable mock of the Petfinder v2 API.
type MockPetfinder struct {
	server *httptest.Server
	mu     sync.Mutex

	token       string
	expiresIn   int
	tokenStatus int

	animalPages  [][]json.RawMessage
	totalPages   int
	failPage     int
	failStatus   int
	animalsByID  map[string]json.RawMessage
	organization []json.RawMessage

	// Tracking
	tokenRequests  int
	pagesRequested []int
	lastQuery      url.Values
	lastAuth       string
	lastTokenForm  url.Values
}

// NewMockPetfinder starts a mock server issuing DefaultToken with a one hour TTL
// and serving no animals.
func NewMockPetfinder() *MockPetfinder {
	m := &MockPetfinder{
		token:       DefaultToken,
		expiresIn:   3600,
		tokenStatus: http.StatusOK,
		totalPages:  0,
		animalsByID: make(map[string]json.RawMessage),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", m.handleToken)
	mux.HandleFunc("/animals", m.handleAnimals)
	mux.HandleFunc("/animals/", m.handleAnimal)
	mux.HandleFunc("/organizations", m.handleOrganizations)
	m.server = httptest.NewServer(mux)

	return m
}

// URL returns the mock server base URL (use it as the API base URL).
func (m *MockPetfinder) URL() string {
	return m.server.URL
}

// TokenURL returns the token-exchange endpoint URL.
func (m *MockPetfinder) TokenURL() string {
	return m.server.URL + "/oauth2/token"
}

// Close shuts down the mock server.
func (m *MockPetfinder) Close() {
	m.server.Close()
}

// SetToken configures the token and TTL issued by the token endpoint.
func (m *MockPetfinder) SetToken(token string, expiresIn int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expiresIn = expiresIn
}

// FailToken makes the token endpoint answer with the given status.
func (m *MockPetfinder) FailToken(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenStatus = status
}

// SetAnimalPages configures the listing endpoint. Page n (1-based) returns
// pages[n-1]; pages beyond the slice are empty. A negative totalPages omits
// the pagination object from responses.
func (m *MockPetfinder) SetAnimalPages(totalPages int, pages ...[]json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPages = totalPages
	m.animalPages = pages
	for _, page := range pages {
		for _, raw := range page {
			var probe struct {
				ID json.Number `json:"id"`
			}
			if err := json.Unmarshal(raw, &probe); err == nil && probe.ID != "" {
				m.animalsByID[probe.ID.String()] = raw
			}
		}
	}
}

// FailAnimalsPage makes the listing endpoint answer page with the given status.
func (m *MockPetfinder) FailAnimalsPage(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPage = page
	m.failStatus = status
}

// SetOrganizations configures the organizations endpoint.
func (m *MockPetfinder) SetOrganizations(orgs ...json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organization = orgs
}

// TokenRequestCount returns the number of token exchanges.
func (m *MockPetfinder) TokenRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenRequests
}

// PagesRequested returns the listing pages requested, in order.
func (m *MockPetfinder) PagesRequested() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.pagesRequested...)
}

// LastQuery returns the query string of the last data request.
func (m *MockPetfinder) LastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// LastAuthorization returns the Authorization header of the last data request.
func (m *MockPetfinder) LastAuthorization() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAuth
}

// LastTokenForm returns the form of the last token exchange.
func (m *MockPetfinder) LastTokenForm() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTokenForm
}

func (m *MockPetfinder) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()

	m.mu.Lock()
	m.tokenRequests++
	m.lastTokenForm = r.PostForm
	status, token, ttl := m.tokenStatus, m.token, m.expiresIn
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		w.Write([]byte(`{"type":"https://httpstatus.es/401","status":401,"title":"invalid_client"}`))
		return
	}
	if r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("client_id") == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_request"}`))
		return
	}

	fmt.Fprintf(w, `{"token_type":"Bearer","expires_in":%d,"access_token":%q}`, ttl, token)
}

// authorize records the request and checks the bearer token.
func (m *MockPetfinder) authorize(w http.ResponseWriter, r *http.Request) bool {
	m.mu.Lock()
	m.lastQuery = r.URL.Query()
	m.lastAuth = r.Header.Get("Authorization")
	want := "Bearer " + m.token
	m.mu.Unlock()

	if r.Header.Get("Authorization") != want {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":401,"title":"Unauthorized"}`))
		return false
	}
	return true
}

func (m *MockPetfinder) handleAnimals(w http.ResponseWriter, r *http.Request) {
	if !m.authorize(w, r) {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	m.mu.Lock()
	m.pagesRequested = append(m.pagesRequested, page)
	failPage, failStatus, total := m.failPage, m.failStatus, m.totalPages
	var batch []json.RawMessage
	if page <= len(m.animalPages) {
		batch = m.animalPages[page-1]
	}
	m.mu.Unlock()

	if failPage != 0 && page == failPage {
		w.WriteHeader(failStatus)
		w.Write([]byte(`{"status":500,"title":"failure"}`))
		return
	}

	if batch == nil {
		batch = []json.RawMessage{}
	}
	body := map[string]any{"animals": batch}
	if total >= 0 {
		body["pagination"] = map[string]any{
			"count_per_page": len(batch),
			"total_count":    total * len(batch),
			"current_page":   page,
			"total_pages":    total,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (m *MockPetfinder) handleAnimal(w http.ResponseWriter, r *http.Request) {
	if !m.authorize(w, r) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/animals/")
	m.mu.Lock()
	raw, ok := m.animalsByID[id]
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":404,"title":"Not Found"}`))
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"animal": raw})
}

func (m *MockPetfinder) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	if !m.authorize(w, r) {
		return
	}

	m.mu.Lock()
	orgs := m.organization
	m.mu.Unlock()
	if orgs == nil {
		orgs = []json.RawMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"organizations": orgs,
		"pagination":    map[string]any{"total_pages": 1, "current_page": 1},
	})
}
