package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/numisight/numisight/internal/catalog"
	"github.com/numisight/numisight/internal/history"
	"github.com/numisight/numisight/internal/identify"
	"github.com/numisight/numisight/internal/websearch"
)

type fakeCatalog struct {
	matches []catalog.Match
	err     error
	terms   [][]string
}

func (f *fakeCatalog) Search(_ context.Context, terms []string) ([]catalog.Match, error) {
	f.terms = append(f.terms, terms)
	return f.matches, f.err
}

type fakeWeb struct {
	results []websearch.Result
	err     error
	queries []string
}

func (f *fakeWeb) Search(_ context.Context, query string) ([]websearch.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeClassifier struct {
	pred identify.Prediction
	err  error
	got  []byte
}

func (f *fakeClassifier) Predict(_ context.Context, data []byte) (identify.Prediction, error) {
	f.got = data
	return f.pred, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e history.Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return fmt.Sprintf("id-%d", len(f.entries)), nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "coin.jpg")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ai-identify", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestSearch(t *testing.T) {
	cat := &fakeCatalog{matches: []catalog.Match{{Period: catalog.PeriodAncient, SNo: 1, Code: "AK-01", Dynasty: "Kushan", KingName: "Kanishka"}}}
	web := &fakeWeb{results: []websearch.Result{{Title: "Kushan coins", Link: "https://example.com/k", Engine: "Google"}}}
	rec := &fakeRecorder{}
	h := NewHandler(cat, web, nil, rec, Options{QuerySuffix: "coin numismatics"}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?query=Kushan+Kanishka", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.DatabaseResults) != 1 || resp.DatabaseResults[0].Code != "AK-01" {
		t.Errorf("database_results = %+v", resp.DatabaseResults)
	}
	if len(resp.WebResults) != 1 || resp.WebResults[0].Engine != "Google" {
		t.Errorf("web_results = %+v", resp.WebResults)
	}

	if len(cat.terms) != 1 || strings.Join(cat.terms[0], "|") != "Kushan|Kanishka" {
		t.Errorf("catalog terms = %v", cat.terms)
	}
	if len(web.queries) != 1 || web.queries[0] != "Kushan Kanishka coin numismatics" {
		t.Errorf("web queries = %v", web.queries)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Kind != history.KindSearch || e.Status != history.StatusOK || e.DatabaseCount != 1 || e.WebCount != 1 {
		t.Errorf("history entry = %+v", e)
	}
}

func TestSearchEmptyResultsAreArrays(t *testing.T) {
	h := NewHandler(&fakeCatalog{}, &fakeWeb{}, nil, nil, Options{}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?query=nothing", nil))

	want := `{"database_results":[],"web_results":[]}` + "\n"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	cat := &fakeCatalog{}
	h := NewHandler(cat, &fakeWeb{}, nil, nil, Options{}, nil)

	for _, target := range []string{"/api/search", "/api/search?query=", "/api/search?query=%20%20"} {
		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
		if got := decodeError(t, w); got != MsgQueryRequired {
			t.Errorf("%s: error = %q", target, got)
		}
	}
	if len(cat.terms) != 0 {
		t.Error("catalog should not be searched without a query")
	}
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name string
		cat  *fakeCatalog
		web  *fakeWeb
	}{
		{"catalog", &fakeCatalog{err: errors.New("disk I/O error")}, &fakeWeb{}},
		{"web", &fakeCatalog{}, &fakeWeb{err: context.DeadlineExceeded}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			h := NewHandler(tt.cat, tt.web, nil, rec, Options{}, nil)

			w := httptest.NewRecorder()
			newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?query=Kushan", nil))

			if w.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", w.Code)
			}
			if got := decodeError(t, w); got != MsgInternal {
				t.Errorf("error = %q", got)
			}
			if len(rec.entries) != 1 || rec.entries[0].Status != history.StatusError {
				t.Errorf("history = %+v", rec.entries)
			}
		})
	}
}

func TestIdentify(t *testing.T) {
	cat := &fakeCatalog{matches: []catalog.Match{{Code: "AK-01"}}}
	web := &fakeWeb{results: []websearch.Result{{Title: "Gupta gold", Link: "https://example.com/g", Engine: "DuckDuckGo"}}}
	cls := &fakeClassifier{pred: identify.Prediction{PredictedClass: "Gupta", Probability: 0.91}}
	rec := &fakeRecorder{}
	h := NewHandler(cat, web, cls, rec, Options{QuerySuffix: "coin numismatics"}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, uploadRequest(t, UploadField, []byte("image-bytes")))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp IdentifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AIPrediction.PredictedClass != "Gupta" || resp.AIPrediction.Probability != 0.91 {
		t.Errorf("ai_prediction = %+v", resp.AIPrediction)
	}
	if resp.DatabaseResults == nil || len(resp.DatabaseResults) != 0 {
		t.Errorf("database_results = %v, want empty array", resp.DatabaseResults)
	}
	if len(resp.WebResults) != 1 {
		t.Errorf("web_results = %+v", resp.WebResults)
	}
	if resp.Error != "" {
		t.Errorf("unexpected error field %q", resp.Error)
	}
	if !strings.Contains(w.Body.String(), `"database_results":[]`) {
		t.Errorf("body should carry an empty database_results array: %s", w.Body.String())
	}

	if string(cls.got) != "image-bytes" {
		t.Errorf("classifier got %q", cls.got)
	}
	if len(cat.terms) != 0 {
		t.Error("catalog should not be searched on identify by default")
	}
	if len(web.queries) != 1 || web.queries[0] != "Gupta coin numismatics" {
		t.Errorf("web queries = %v", web.queries)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Kind != history.KindIdentify || e.PredictedClass != "Gupta" || e.Probability == nil || *e.Probability != 0.91 {
		t.Errorf("history entry = %+v", e)
	}
}

func TestIdentifySearchOnIdentify(t *testing.T) {
	cat := &fakeCatalog{matches: []catalog.Match{{Code: "GU-01"}}}
	cls := &fakeClassifier{pred: identify.Prediction{PredictedClass: "Gupta Empire", Probability: 0.5}}
	h := NewHandler(cat, &fakeWeb{}, cls, nil, Options{SearchOnIdentify: true}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, uploadRequest(t, UploadField, []byte("x")))

	var resp IdentifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.DatabaseResults) != 1 || resp.DatabaseResults[0].Code != "GU-01" {
		t.Errorf("database_results = %+v", resp.DatabaseResults)
	}
	if len(cat.terms) != 1 || strings.Join(cat.terms[0], "|") != "Gupta|Empire" {
		t.Errorf("catalog terms = %v", cat.terms)
	}
}

func TestIdentifyUnavailable(t *testing.T) {
	tests := []struct {
		name string
		cls  Classifier
	}{
		{"no classifier", nil},
		{"unavailable error", &fakeClassifier{err: identify.ErrUnavailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeCatalog{}, &fakeWeb{}, tt.cls, nil, Options{}, nil)

			w := httptest.NewRecorder()
			newRouter(h).ServeHTTP(w, uploadRequest(t, UploadField, []byte("x")))

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", w.Code)
			}
			if got := decodeError(t, w); got != MsgModelUnavailable {
				t.Errorf("error = %q", got)
			}
		})
	}
}

func TestIdentifyBadUploads(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "wrong field",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "image", []byte("x")) },
			wantStatus: http.StatusBadRequest,
			wantMsg:    MsgNoImage,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/ai-identify", strings.NewReader("raw"))
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    MsgNoImage,
		},
		{
			name:       "empty file",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, UploadField, nil) },
			wantStatus: http.StatusBadRequest,
			wantMsg:    MsgEmptyImage,
		},
		{
			name:       "too large",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, UploadField, bytes.Repeat([]byte("a"), 4096)) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantMsg:    MsgImageTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &fakeClassifier{pred: identify.Prediction{PredictedClass: "Gupta"}}
			h := NewHandler(&fakeCatalog{}, &fakeWeb{}, cls, nil, Options{MaxUploadBytes: 1024}, nil)

			w := httptest.NewRecorder()
			newRouter(h).ServeHTTP(w, tt.req(t))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeError(t, w); got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
			if cls.got != nil {
				t.Error("classifier should not run for a bad upload")
			}
		})
	}
}

func TestIdentifyClassificationError(t *testing.T) {
	cls := &fakeClassifier{err: identify.ErrInvalidImage}
	h := NewHandler(&fakeCatalog{}, &fakeWeb{}, cls, nil, Options{}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, uploadRequest(t, UploadField, []byte("not an image")))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got != "cannot identify image file" {
		t.Errorf("error = %q", got)
	}
}

func TestIdentifyWebSearchFailure(t *testing.T) {
	cls := &fakeClassifier{pred: identify.Prediction{PredictedClass: "Maurya", Probability: 0.7}}
	rec := &fakeRecorder{}
	h := NewHandler(&fakeCatalog{}, &fakeWeb{err: context.Canceled}, cls, rec, Options{}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, uploadRequest(t, UploadField, []byte("x")))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp IdentifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != MsgWebSearchFailed {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.AIPrediction.PredictedClass != "Maurya" {
		t.Errorf("prediction should be kept, got %+v", resp.AIPrediction)
	}
	if resp.WebResults == nil || len(resp.WebResults) != 0 {
		t.Errorf("web_results = %v, want empty array", resp.WebResults)
	}
	if len(rec.entries) != 1 || rec.entries[0].Status != history.StatusError || rec.entries[0].Error != MsgWebSearchFailed {
		t.Errorf("history = %+v", rec.entries)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewHandler(&fakeCatalog{}, &fakeWeb{}, nil, nil, Options{}, nil)

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ai-identify", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
