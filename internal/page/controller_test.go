package page

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu       sync.Mutex
	searches []string
	uploads  []string
	search   func(ctx context.Context, query string) (*SearchResponse, error)
	identify func(ctx context.Context, u Upload) (*IdentifyResponse, error)
}

func (f *fakeBackend) Search(ctx context.Context, query string) (*SearchResponse, error) {
	f.mu.Lock()
	f.searches = append(f.searches, query)
	f.mu.Unlock()
	if f.search == nil {
		return &SearchResponse{}, nil
	}
	return f.search(ctx, query)
}

func (f *fakeBackend) Identify(ctx context.Context, u Upload) (*IdentifyResponse, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, u.Name)
	f.mu.Unlock()
	if f.identify == nil {
		return &IdentifyResponse{}, nil
	}
	return f.identify(ctx, u)
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches) + len(f.uploads)
}

func newTestController(t *testing.T, backend Backend) (*Controller, *Document) {
	t.Helper()
	doc := NewDocument()
	els, err := Bind(doc.Lookup)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return New(els, backend, nil), doc
}

func wait(t *testing.T, a *Action) error {
	t.Helper()
	select {
	case <-a.Done():
		return a.Err()
	case <-time.After(5 * time.Second):
		t.Fatal("action did not finish")
		return nil
	}
}

func TestEmptyQueryIsSkipped(t *testing.T) {
	backend := &fakeBackend{}
	c, doc := newTestController(t, backend)
	before := doc.HTML()

	for _, q := range []string{"", "   ", "\t\n"} {
		a := c.SubmitTextSearch(context.Background(), q)
		if !a.Skipped() {
			t.Errorf("query %q should be skipped", q)
		}
		if err := wait(t, a); err != nil {
			t.Errorf("skipped action error: %v", err)
		}
	}

	if backend.calls() != 0 {
		t.Errorf("backend called %d times", backend.calls())
	}
	if doc.HTML() != before {
		t.Error("skipped search changed the page")
	}
}

func TestSearchWebResultsOnly(t *testing.T) {
	backend := &fakeBackend{search: func(context.Context, string) (*SearchResponse, error) {
		return &SearchResponse{
			DatabaseResults: []DbResult{},
			WebResults:      []WebResult{{Title: "T", Engine: "E", Link: "L", Snippet: "S"}},
		}, nil
	}}
	c, doc := newTestController(t, backend)

	if err := wait(t, c.SubmitTextSearch(context.Background(), "  Kushan  ")); err != nil {
		t.Fatalf("search: %v", err)
	}

	if backend.searches[0] != "Kushan" {
		t.Errorf("query sent = %q, want trimmed", backend.searches[0])
	}
	if doc.Node(IDDatabaseSection).Visible() {
		t.Error("database section should stay hidden")
	}
	if !doc.Node(IDWebSection).Visible() || !doc.Node(IDResultsContainer).Visible() {
		t.Error("web section and text region should be visible")
	}

	cards := doc.Node(IDWebResults).ByClass("result-card")
	if len(cards) != 1 {
		t.Fatalf("web cards = %d, want 1", len(cards))
	}
	text := cards[0].Text()
	for _, want := range []string{"T", "E", "S"} {
		if !strings.Contains(text, want) {
			t.Errorf("card text %q missing %q", text, want)
		}
	}
	if href := cards[0].ByClass("read-more")[0].Attr("href"); href != "L" {
		t.Errorf("link = %q, want L", href)
	}
	if doc.Node(IDLoading).Visible() {
		t.Error("loading indicator should be hidden after completion")
	}
}

func TestSearchFullTextSummary(t *testing.T) {
	backend := &fakeBackend{search: func(context.Context, string) (*SearchResponse, error) {
		return &SearchResponse{WebResults: []WebResult{
			{Title: "long", FullText: strings.Repeat("x", 500), Snippet: "raw snippet"},
			{Title: "short", Snippet: "raw snippet"},
		}}, nil
	}}
	c, doc := newTestController(t, backend)
	wait(t, c.SubmitTextSearch(context.Background(), "coins"))

	cards := doc.Node(IDWebResults).ByClass("web-result")
	if len(cards) != 2 {
		t.Fatalf("cards = %d", len(cards))
	}
	body := cards[0].Children()[1].Text()
	if body != strings.Repeat("x", 300)+"..." {
		t.Errorf("summary = %q (%d chars)", body, len(body))
	}
	if got := cards[1].Children()[1].Text(); got != "raw snippet" {
		t.Errorf("snippet body = %q", got)
	}
}

func TestSearchNoResultsHidesSections(t *testing.T) {
	c, doc := newTestController(t, &fakeBackend{})
	wait(t, c.SubmitTextSearch(context.Background(), "nothing"))

	for _, id := range []string{IDDatabaseSection, IDWebSection, IDResultsContainer, IDImageRegion} {
		if doc.Node(id).Visible() {
			t.Errorf("%s should be hidden when there are no results", id)
		}
	}
	if txt := doc.Node(IDWebResults).Text() + doc.Node(IDDatabaseResults).Text(); txt != "" {
		t.Errorf("no-results search rendered %q", txt)
	}
}

func TestSearchReplacesPreviousCards(t *testing.T) {
	n := 3
	backend := &fakeBackend{search: func(context.Context, string) (*SearchResponse, error) {
		resp := &SearchResponse{}
		for i := 0; i < n; i++ {
			resp.DatabaseResults = append(resp.DatabaseResults, DbResult{KingName: "K", Dynasty: "D", Code: "C"})
		}
		return resp, nil
	}}
	c, doc := newTestController(t, backend)

	wait(t, c.SubmitTextSearch(context.Background(), "first"))
	n = 1
	wait(t, c.SubmitTextSearch(context.Background(), "second"))

	if got := len(doc.Node(IDDatabaseResults).ByClass("db-result")); got != 1 {
		t.Errorf("db cards = %d after second search, want 1", got)
	}
}

func TestLoadingState(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{search: func(ctx context.Context, _ string) (*SearchResponse, error) {
		<-release
		return &SearchResponse{}, nil
	}}
	c, doc := newTestController(t, backend)
	doc.Node(IDPrediction).SetHTML("<p>stale prediction</p>")

	a := c.SubmitTextSearch(context.Background(), "Gupta")

	c.mu.Lock()
	loading := doc.Node(IDLoading)
	if !loading.Visible() || loading.Text() != SearchingMessage {
		t.Errorf("loading = visible %v text %q", loading.Visible(), loading.Text())
	}
	if p := loading.Parent(); p == nil || p.ID() != IDResultsContainer {
		t.Error("loading indicator should sit in the text region")
	}
	if doc.Node(IDPrediction).Text() != "" {
		t.Error("entering loading should clear the prediction slot")
	}
	if doc.Node(IDImageRegion).Visible() {
		t.Error("image region should be hidden during a text search")
	}
	c.mu.Unlock()

	close(release)
	wait(t, a)
	if loading.Visible() {
		t.Error("loading indicator should be hidden at the end")
	}
}

func TestHTTPErrorCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"not found"}`)
	}))
	defer srv.Close()

	c, doc := newTestController(t, NewClient(srv.URL, srv.Client()))
	err := wait(t, c.SubmitTextSearch(context.Background(), "Kushan"))

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want HTTPError 404", err)
	}

	web := doc.Node(IDWebResults)
	cards := web.ByClass("result-card")
	if len(cards) != 1 || cards[0].Text() != "Error: not found" {
		t.Errorf("error cards = %s", web.HTML())
	}
	if !doc.Node(IDWebSection).Visible() || !doc.Node(IDResultsContainer).Visible() {
		t.Error("error should force the web section and text region visible")
	}
	if doc.Node(IDLoading).Visible() {
		t.Error("loading indicator should be hidden after an error")
	}
}

func TestHTTPErrorUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	c, doc := newTestController(t, NewClient(srv.URL, srv.Client()))
	wait(t, c.SubmitTextSearch(context.Background(), "Kushan"))

	text := doc.Node(IDWebResults).Text()
	if !strings.Contains(text, "502") {
		t.Errorf("error card %q should mention the status", text)
	}
	if text != "Error: HTTP error! status: 502" {
		t.Errorf("error card = %q", text)
	}
}

func TestTransportErrorCard(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, doc := newTestController(t, NewClient(url, nil))
	err := wait(t, c.SubmitTextSearch(context.Background(), "Kushan"))

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	text := doc.Node(IDWebResults).Text()
	if !strings.HasPrefix(text, "Error: ") || len(text) <= len("Error: ") {
		t.Errorf("error card = %q", text)
	}
}

func TestImageIdentify(t *testing.T) {
	image := []byte("\x89PNG fake coin bytes")
	var (
		mu       sync.Mutex
		received []byte
		field    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/ai-identify" {
			http.NotFound(w, r)
			return
		}
		f, hdr, err := r.FormFile(UploadField)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"No image file provided."}`)
			return
		}
		data, _ := io.ReadAll(f)
		mu.Lock()
		received, field = data, hdr.Filename
		mu.Unlock()
		io.WriteString(w, `{"ai_prediction":{"predicted_class":"Denarius","probability":0.87},"database_results":[],"web_results":[{"title":"Roman denarius","engine":"Google","link":"https://example.com/d","snippet":"Silver coin"}]}`)
	}))
	defer srv.Close()

	c, doc := newTestController(t, NewClient(srv.URL, srv.Client()))
	a := c.HandleFileChange(context.Background(), []Upload{
		BytesUpload("coin.png", "image/png", image),
		BytesUpload("ignored.png", "image/png", []byte("second")),
	})
	if err := wait(t, a); err != nil {
		t.Fatalf("identify: %v", err)
	}

	wantSrc := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	if src := doc.Node(IDPreview).Attr("src"); src != wantSrc {
		t.Errorf("preview src = %q, want %q", src, wantSrc)
	}
	mu.Lock()
	if string(received) != string(image) || field != "coin.png" {
		t.Errorf("server received %q as %q", received, field)
	}
	mu.Unlock()

	prediction := doc.Node(IDPrediction).Text()
	if !strings.Contains(prediction, "Denarius") || !strings.Contains(prediction, "0.87") {
		t.Errorf("prediction = %q", prediction)
	}
	if prediction != "AI Prediction: Denarius (Confidence: 0.87)" {
		t.Errorf("prediction text = %q", prediction)
	}
	if !doc.Node(IDImageRegion).Visible() || !doc.Node(IDPreview).Visible() {
		t.Error("image region and preview should be visible")
	}
	if len(doc.Node(IDWebResults).ByClass("web-result")) != 1 {
		t.Error("accompanying web results should render")
	}
	if p := doc.Node(IDLoading).Parent(); p == nil || p.ID() != IDImageRegion {
		t.Error("loading indicator should have moved into the image region")
	}
}

func TestImageWithoutPrediction(t *testing.T) {
	backend := &fakeBackend{identify: func(context.Context, Upload) (*IdentifyResponse, error) {
		return &IdentifyResponse{
			DatabaseResults: []DbResult{{KingName: "Augustus", Dynasty: "Julio-Claudian", Code: "R-01"}},
		}, nil
	}}
	c, doc := newTestController(t, backend)
	wait(t, c.SubmitImageIdentify(context.Background(), &Upload{Name: "c.jpg", Open: BytesUpload("", "", []byte("x")).Open}))

	if txt := doc.Node(IDPrediction).Text(); txt != "" {
		t.Errorf("prediction slot = %q, want empty", txt)
	}
	if !doc.Node(IDImageRegion).Visible() {
		t.Error("image region holding the preview should stay visible")
	}
	if !doc.Node(IDDatabaseSection).Visible() {
		t.Error("database results should still render")
	}
	if got := doc.Node(IDDatabaseResults).Text(); !strings.Contains(got, "Augustus - Julio-Claudian") {
		t.Errorf("db card = %q", got)
	}
	if src := doc.Node(IDPreview).Attr("src"); !strings.HasPrefix(src, "data:application/octet-stream;base64,") {
		t.Errorf("preview src = %q", src)
	}
}

func TestImagePreviewBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{identify: func(ctx context.Context, _ Upload) (*IdentifyResponse, error) {
		<-release
		return &IdentifyResponse{}, nil
	}}
	c, doc := newTestController(t, backend)
	a := c.SubmitImageIdentify(context.Background(), &Upload{Name: "c.jpg", ContentType: "image/jpeg", Open: BytesUpload("", "", []byte("jpg")).Open})

	deadline := time.Now().Add(5 * time.Second)
	for {
		c.mu.Lock()
		src := doc.Node(IDPreview).Attr("src")
		c.mu.Unlock()
		if src != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("preview never shown while the request was pending")
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-a.Done():
		t.Fatal("action finished before the response")
	default:
	}
	close(release)
	wait(t, a)
}

func TestImageResponseBeforePreview(t *testing.T) {
	responded := make(chan struct{})
	releasePreview := make(chan struct{})
	backend := &fakeBackend{identify: func(context.Context, Upload) (*IdentifyResponse, error) {
		defer close(responded)
		return &IdentifyResponse{AIPrediction: &Prediction{PredictedClass: "Denarius", Probability: "0.87"}}, nil
	}}
	upload := &Upload{
		Name:        "c.png",
		ContentType: "image/png",
		Open: func() (io.ReadCloser, error) {
			<-responded
			<-releasePreview
			return io.NopCloser(strings.NewReader("img")), nil
		},
	}
	c, doc := newTestController(t, backend)
	a := c.SubmitImageIdentify(context.Background(), upload)

	deadline := time.Now().Add(5 * time.Second)
	for {
		c.mu.Lock()
		prediction := doc.Node(IDPrediction).Text()
		loading := doc.Node(IDLoading).Visible()
		c.mu.Unlock()
		if prediction != "" {
			if prediction != "AI Prediction: Denarius (Confidence: 0.87)" {
				t.Errorf("prediction = %q", prediction)
			}
			if loading {
				t.Error("loading indicator still visible after the response")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("response never rendered while the preview was pending")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.mu.Lock()
	src := doc.Node(IDPreview).Attr("src")
	c.mu.Unlock()
	if src != "" {
		t.Errorf("preview src = %q before the file was read", src)
	}

	close(releasePreview)
	wait(t, a)

	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("img"))
	if src := doc.Node(IDPreview).Attr("src"); src != want {
		t.Errorf("preview src = %q, want %q", src, want)
	}
	if !doc.Node(IDImageRegion).Visible() {
		t.Error("image region should stay visible")
	}
}

func TestNilUploadIsSkipped(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(t, backend)

	if !c.SubmitImageIdentify(context.Background(), nil).Skipped() {
		t.Error("nil upload should be skipped")
	}
	if !c.HandleFileChange(context.Background(), nil).Skipped() {
		t.Error("empty file list should be skipped")
	}
	if backend.calls() != 0 {
		t.Error("backend should not be called")
	}
}

func TestSupersededImageResponseIsDropped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		identify: func(ctx context.Context, _ Upload) (*IdentifyResponse, error) {
			close(started)
			<-release
			return &IdentifyResponse{
				AIPrediction: &Prediction{PredictedClass: "Denarius", Probability: "0.87"},
				WebResults:   []WebResult{{Title: "late image result"}},
			}, nil
		},
		search: func(context.Context, string) (*SearchResponse, error) {
			return &SearchResponse{WebResults: []WebResult{{Title: "text result", Snippet: "s"}}}, nil
		},
	}
	c, doc := newTestController(t, backend)

	img := c.SubmitImageIdentify(context.Background(), &Upload{Name: "c.jpg", Open: BytesUpload("", "", []byte("x")).Open})
	<-started

	text := c.SubmitTextSearch(context.Background(), "Kushan")
	if err := wait(t, text); err != nil {
		t.Fatalf("text search: %v", err)
	}

	close(release)
	if err := wait(t, img); err != nil {
		t.Fatalf("image action: %v", err)
	}

	if !img.Superseded() {
		t.Error("image action should report superseded")
	}
	if text.Superseded() {
		t.Error("text action should not be superseded")
	}
	if doc.Node(IDImageRegion).Visible() {
		t.Error("late image response resurrected the image region")
	}
	if doc.Node(IDPrediction).Text() != "" {
		t.Error("late prediction was rendered")
	}
	cards := doc.Node(IDWebResults).ByClass("web-result")
	if len(cards) != 1 || !strings.Contains(cards[0].Text(), "text result") {
		t.Errorf("web cards = %s", doc.Node(IDWebResults).HTML())
	}
	if !doc.Node(IDResultsContainer).Visible() {
		t.Error("text results should stay visible")
	}
}

func TestSupersededActionKeepsNewLoadingIndicator(t *testing.T) {
	firstRelease := make(chan struct{})
	secondRelease := make(chan struct{})
	var calls int
	var mu sync.Mutex
	backend := &fakeBackend{search: func(ctx context.Context, q string) (*SearchResponse, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-firstRelease
		} else {
			<-secondRelease
		}
		return &SearchResponse{}, nil
	}}
	c, doc := newTestController(t, backend)

	first := c.SubmitTextSearch(context.Background(), "one")
	for backend.calls() < 1 {
		time.Sleep(time.Millisecond)
	}
	second := c.SubmitTextSearch(context.Background(), "two")

	close(firstRelease)
	wait(t, first)

	c.mu.Lock()
	visible := doc.Node(IDLoading).Visible()
	c.mu.Unlock()
	if !visible {
		t.Error("stale completion hid the newer action's loading indicator")
	}

	close(secondRelease)
	wait(t, second)
	if doc.Node(IDLoading).Visible() {
		t.Error("loading indicator should be hidden once the current action ends")
	}
}

func TestCancelRendersNothing(t *testing.T) {
	backend := &fakeBackend{search: func(ctx context.Context, _ string) (*SearchResponse, error) {
		<-ctx.Done()
		return nil, &TransportError{Err: ctx.Err()}
	}}
	c, doc := newTestController(t, backend)

	a := c.SubmitTextSearch(context.Background(), "Kushan")
	a.Cancel()
	err := wait(t, a)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if doc.Node(IDWebResults).Text() != "" {
		t.Error("cancelled action should not render an error card")
	}
	if doc.Node(IDLoading).Visible() {
		t.Error("loading indicator should be hidden after cancel")
	}
}

func TestHandleKey(t *testing.T) {
	backend := &fakeBackend{}
	c, doc := newTestController(t, backend)
	doc.Node(IDSearchInput).SetValue("Samudragupta")

	if !c.HandleKey(context.Background(), "a").Skipped() {
		t.Error("non-Enter key should be skipped")
	}
	wait(t, c.HandleKey(context.Background(), "Enter"))

	if len(backend.searches) != 1 || backend.searches[0] != "Samudragupta" {
		t.Errorf("searches = %v", backend.searches)
	}
}
