package page

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// UploadField is the multipart field the identify endpoint reads.
const UploadField = "coin_image"

// DbResult is one catalog match.
type DbResult struct {
	Period   string `json:"period,omitempty"`
	SNo      int    `json:"s_no,omitempty"`
	KingName string `json:"king_name"`
	Dynasty  string `json:"dynasty"`
	Code     string `json:"code"`
	Details  string `json:"details"`
	ImageURL string `json:"image_url,omitempty"`
}

// WebResult is one verified web page.
type WebResult struct {
	Title    string `json:"title"`
	Engine   string `json:"engine"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	FullText string `json:"full_text,omitempty"`
}

// Confidence keeps the probability exactly as the server wrote it, whether
// a JSON number or a string.
type Confidence string

func (c *Confidence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Confidence(s)
	default:
		*c = Confidence(b)
	}
	return nil
}

func (c Confidence) String() string { return string(c) }

// Prediction is the classifier's answer.
type Prediction struct {
	PredictedClass string     `json:"predicted_class"`
	Probability    Confidence `json:"probability"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	DatabaseResults []DbResult  `json:"database_results"`
	WebResults      []WebResult `json:"web_results"`
}

// IdentifyResponse is the body of POST /api/ai-identify.
type IdentifyResponse struct {
	AIPrediction    *Prediction `json:"ai_prediction,omitempty"`
	DatabaseResults []DbResult  `json:"database_results"`
	WebResults      []WebResult `json:"web_results"`
}

// Backend is what the controller calls for each action.
type Backend interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
	Identify(ctx context.Context, upload Upload) (*IdentifyResponse, error)
}

// Client calls the numisight HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Search runs a text search.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	u := c.baseURL + "/api/search?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var resp SearchResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Identify uploads an image for identification.
func (c *Client) Identify(ctx context.Context, upload Upload) (*IdentifyResponse, error) {
	data, err := upload.ReadAll()
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading %s: %w", upload.Name, err)}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(upload.Name)))
	h.Set("Content-Type", upload.mimeType())
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &TransportError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ai-identify", &body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp IdentifyResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		// An unreadable error body falls back to the status message.
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return newHTTPError(resp.StatusCode, body.Error)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(out); err != nil {
		return &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
