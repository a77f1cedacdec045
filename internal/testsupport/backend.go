package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// StoredObject is one payload PUT to the fake storage.
type StoredObject struct {
	Body        []byte
	ContentType string
}

// FakeBackend is an httptest server speaking the evaluation backend API and
// acting as the presigned storage target.
type FakeBackend struct {
	Server *httptest.Server
	APIKey string

	mu           sync.Mutex
	evaluations  []map[string]any
	createBodies []map[string]any
	urlRequests  []string
	registered   map[string][]map[string]any
	objects      map[string]StoredObject
	stats        map[string]json.RawMessage
	failStorage  map[string]int
	expireOnce   map[string]int
	failCreate   int
	signature    int
}

// NewFakeBackend starts a fake backend and registers cleanup.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		APIKey:      "test-key",
		registered:  make(map[string][]map[string]any),
		objects:     make(map[string]StoredObject),
		stats:       make(map[string]json.RawMessage),
		failStorage: make(map[string]int),
		expireOnce:  make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /customers/verify/api-key", fb.verify)
	mux.HandleFunc("POST /evaluations", fb.create)
	mux.HandleFunc("GET /evaluations", fb.list)
	mux.HandleFunc("PUT /evaluations/{id}/uploading-presigned-url", fb.uploadURL)
	mux.HandleFunc("PUT /evaluations/{id}/files", fb.registerFiles)
	mux.HandleFunc("GET /evaluations/{id}/stats", fb.getStats)
	mux.HandleFunc("PUT /storage/{key...}", fb.put)
	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the server base URL.
func (fb *FakeBackend) URL() string { return fb.Server.URL }

// SetStats installs the raw JSON returned by the stats endpoint.
func (fb *FakeBackend) SetStats(evaluationID, rawJSON string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.stats[evaluationID] = json.RawMessage(rawJSON)
}

// FailStorage makes PUTs of key answer 500 for the next n attempts.
func (fb *FakeBackend) FailStorage(key string, n int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failStorage[key] = n
}

// ExpireStorage makes PUTs of key answer 403 for the next n attempts.
func (fb *FakeBackend) ExpireStorage(key string, n int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.expireOnce[key] = n
}

// FailCreate makes the next n create-evaluation calls answer 500.
func (fb *FakeBackend) FailCreate(n int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failCreate = n
}

// Object returns the payload stored under key.
func (fb *FakeBackend) Object(key string) (StoredObject, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	obj, ok := fb.objects[key]
	return obj, ok
}

// ObjectKeys returns every stored key.
func (fb *FakeBackend) ObjectKeys() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	keys := make([]string, 0, len(fb.objects))
	for k := range fb.objects {
		keys = append(keys, k)
	}
	return keys
}

// Registered returns the file registrations received for an evaluation.
func (fb *FakeBackend) Registered(evaluationID string) []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]any(nil), fb.registered[evaluationID]...)
}

// CreateBodies returns the bodies of every create-evaluation call.
func (fb *FakeBackend) CreateBodies() []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]any(nil), fb.createBodies...)
}

// URLRequests returns the remote keys for which upload URLs were issued.
func (fb *FakeBackend) URLRequests() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.urlRequests...)
}

func (fb *FakeBackend) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-API-KEY") != fb.APIKey {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fb *FakeBackend) verify(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-KEY") != fb.APIKey {
		writeJSON(w, http.StatusOK, false)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

func (fb *FakeBackend) create(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.createBodies = append(fb.createBodies, body)
	if fb.failCreate > 0 {
		fb.failCreate--
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		return
	}
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	record := map[string]any{
		"id":            fmt.Sprintf("ev-%d", len(fb.evaluations)+1),
		"title":         body["title"],
		"internal_name": body["internal_name"],
		"description":   body["description"],
		"status":        "DRAFT",
		"created_time":  now,
		"updated_time":  now,
	}
	fb.evaluations = append(fb.evaluations, record)
	writeJSON(w, http.StatusCreated, record)
}

func (fb *FakeBackend) list(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := fb.evaluations
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (fb *FakeBackend) uploadURL(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	var body struct {
		ProcessedURI string `json:"processed_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProcessedURI == "" {
		http.Error(w, "processed_uri required", http.StatusBadRequest)
		return
	}
	fb.mu.Lock()
	fb.signature++
	sig := fb.signature
	fb.urlRequests = append(fb.urlRequests, body.ProcessedURI)
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, fmt.Sprintf("%s/storage/%s?sig=%d", fb.Server.URL, body.ProcessedURI, sig))
}

func (fb *FakeBackend) registerFiles(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	var body struct {
		Files []map[string]any `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fb.mu.Lock()
	fb.registered[r.PathValue("id")] = append(fb.registered[r.PathValue("id")], body.Files...)
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"count": len(body.Files)})
}

func (fb *FakeBackend) getStats(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	fb.mu.Lock()
	raw, ok := fb.stats[r.PathValue("id")]
	fb.mu.Unlock()
	if !ok {
		http.Error(w, `{"message":"invalid evaluation id"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (fb *FakeBackend) put(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-KEY") != "" {
		http.Error(w, "api key must not reach storage", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("sig") == "" {
		http.Error(w, "missing signature", http.StatusForbidden)
		return
	}
	key := r.PathValue("key")
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if n := fb.expireOnce[key]; n > 0 {
		fb.expireOnce[key] = n - 1
		http.Error(w, "<Error><Code>AccessDenied</Code><Message>Request has expired</Message></Error>", http.StatusForbidden)
		return
	}
	if n := fb.failStorage[key]; n > 0 {
		fb.failStorage[key] = n - 1
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	fb.objects[key] = StoredObject{Body: data, ContentType: r.Header.Get("Content-Type")}
	w.WriteHeader(http.StatusOK)
}
