package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Kwabenabassaw/feed-backend/app/analytics"
	"github.com/Kwabenabassaw/feed-backend/app/database"
	"github.com/Kwabenabassaw/feed-backend/app/feed"
	"github.com/Kwabenabassaw/feed-backend/app/index"
	"github.com/Kwabenabassaw/feed-backend/app/store"
)

type stubService struct {
	page      *feed.Page
	err       error
	lastUser  string
	lastLimit int
}

func (s *stubService) GetFeed(_ context.Context, userID, cursor string, limit int) (*feed.Page, error) {
	s.lastUser = userID
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

type stubContent struct{}

func (stubContent) BatchGet(_ context.Context, ids []string) (map[string]database.ContentItem, error) {
	return map[string]database.ContentItem{}, nil
}

func (stubContent) GetItemCount(_ context.Context) (int, error) {
	return 42, nil
}

type nullSink struct{}

func (nullSink) Append(_ context.Context, _ [][]byte) error { return nil }

func testRouter(service FeedServiceInterface) (*Handler, http.Handler) {
	pool := index.NewPool()
	pool.Publish(index.BucketTrending, []index.Entry{{ID: "t1", Score: 1}})

	handler := NewHandler(service,
		pool,
		feed.NewHydrator(stubContent{}, time.Minute),
		analytics.NewEmitter(nullSink{}),
		stubContent{},
		"test")
	return handler, NewServer(handler)
}

func doRequest(router http.Handler, method, path, userID string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetFeedReturnsPage(t *testing.T) {
	service := &stubService{page: &feed.Page{
		Items:      []feed.Item{{ID: "a", Title: "A", MediaType: "video"}},
		SessionID:  "s1",
		NextCursor: "next",
		HasMore:    true,
	}}
	_, router := testRouter(service)

	w := doRequest(router, http.MethodGet, "/feed?limit=10", "u1", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp FeedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected valid JSON response, got error: %v", err)
	}
	if resp.SessionID != "s1" || !resp.HasMore || resp.NextCursor != "next" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "a" {
		t.Errorf("Expected one item 'a', got %v", resp.Items)
	}

	if service.lastUser != "u1" {
		t.Errorf("Expected user u1 to be forwarded, got %s", service.lastUser)
	}
	if service.lastLimit != 10 {
		t.Errorf("Expected limit 10, got %d", service.lastLimit)
	}
}

func TestGetFeedRequiresUserHeader(t *testing.T) {
	_, router := testRouter(&stubService{page: &feed.Page{}})

	w := doRequest(router, http.MethodGet, "/feed", "", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without X-User-ID, got %d", w.Code)
	}
}

func TestGetFeedLimitDefaultsAndCaps(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", defaultPageSize},
		{"?limit=abc", defaultPageSize},
		{"?limit=-5", defaultPageSize},
		{"?limit=500", maxPageSize},
		{"?limit=30", 30},
	}

	for _, tc := range cases {
		service := &stubService{page: &feed.Page{}}
		_, router := testRouter(service)

		doRequest(router, http.MethodGet, "/feed"+tc.query, "u1", nil)

		if service.lastLimit != tc.want {
			t.Errorf("Query %q: expected limit %d, got %d", tc.query, tc.want, service.lastLimit)
		}
	}
}

func TestGetFeedErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid cursor", fmt.Errorf("wrap: %w", feed.ErrInvalidCursor), http.StatusBadRequest},
		{"expired session", fmt.Errorf("wrap: %w", feed.ErrExpiredSession), http.StatusGone},
		{"store down", fmt.Errorf("wrap: %w", store.ErrUnavailable), http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, router := testRouter(&stubService{err: tc.err})

			w := doRequest(router, http.MethodGet, "/feed", "u1", nil)

			if w.Code != tc.code {
				t.Errorf("Expected %d, got %d", tc.code, w.Code)
			}
		})
	}
}

func TestPostEventAccepted(t *testing.T) {
	handler, router := testRouter(&stubService{page: &feed.Page{}})

	body, _ := json.Marshal(EventRequest{Type: "click", SessionID: "s1", ItemID: "item-1", Position: 2})
	w := doRequest(router, http.MethodPost, "/events", "u1", body)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}

	_, _, buffered := handler.emitter.Stats()
	if buffered != 1 {
		t.Errorf("Expected 1 buffered event, got %d", buffered)
	}
}

func TestPostEventValidation(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		body   []byte
	}{
		{"missing user", "", []byte(`{"type":"click","session_id":"s1"}`)},
		{"bad json", "u1", []byte(`{not json`)},
		{"missing type", "u1", []byte(`{"session_id":"s1"}`)},
		{"unknown type", "u1", []byte(`{"type":"teleport","session_id":"s1"}`)},
		{"missing session", "u1", []byte(`{"type":"click"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, router := testRouter(&stubService{page: &feed.Page{}})

			w := doRequest(router, http.MethodPost, "/events", tc.userID, tc.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestGetHealth(t *testing.T) {
	_, router := testRouter(&stubService{page: &feed.Page{}})

	w := doRequest(router, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["content_items"] != float64(42) {
		t.Errorf("Expected 42 content items, got %v", health["content_items"])
	}
	if health["index_buckets"] != float64(1) {
		t.Errorf("Expected 1 index bucket, got %v", health["index_buckets"])
	}
}

func TestGetStats(t *testing.T) {
	_, router := testRouter(&stubService{page: &feed.Page{}})

	w := doRequest(router, http.MethodGet, "/stats", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"index", "hydration_cache", "events"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Expected stats to include %q", key)
		}
	}
}

func TestImpressionEventsEmittedPerItem(t *testing.T) {
	service := &stubService{page: &feed.Page{
		Items:     []feed.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		SessionID: "s1",
	}}
	handler, router := testRouter(service)

	doRequest(router, http.MethodGet, "/feed", "u1", nil)

	_, _, buffered := handler.emitter.Stats()
	if buffered != 3 {
		t.Errorf("Expected 3 buffered impressions, got %d", buffered)
	}
}
