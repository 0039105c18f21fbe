package site

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"
)

//go:embed about.md
var aboutMarkdown []byte

// Files of the page controller bundle, looked up in the static directory.
// `go generate ./internal/site` builds both into ./static.
const (
	WasmFile     = "numisight.wasm"
	WasmExecFile = "wasm_exec.js"
)

//go:generate sh -c "mkdir -p ../../static && GOOS=js GOARCH=wasm go build -o ../../static/numisight.wasm ../../web/wasm"
//go:generate sh -c "cp \"$(go env GOROOT)/lib/wasm/wasm_exec.js\" ../../static/"

// Options configures the page.
type Options struct {
	Title     string
	StaticDir string
}

// Site serves the coin identification page and its static assets.
type Site struct {
	opts   Options
	page   []byte
	logger *zap.Logger
}

type pageData struct {
	Title string
	About template.HTML
	WASM  bool
}

// New renders the page once and returns a Site ready to serve it.
func New(opts Options, logger *zap.Logger) (*Site, error) {
	if opts.Title == "" {
		opts.Title = "numisight"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	about, err := RenderMarkdown(aboutMarkdown)
	if err != nil {
		return nil, fmt.Errorf("rendering about panel: %w", err)
	}

	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	data := pageData{
		Title: opts.Title,
		About: template.HTML(about),
	}
	var missing []string
	for _, f := range []string{WasmFile, WasmExecFile} {
		if !hasFile(opts.StaticDir, f) {
			missing = append(missing, f)
		}
	}
	data.WASM = len(missing) == 0
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	if !data.WASM {
		logger.Warn("page controller bundle incomplete; the page will not be interactive; run go generate ./internal/site",
			zap.String("static_dir", opts.StaticDir), zap.Strings("missing", missing))
	}

	return &Site{opts: opts, page: buf.Bytes(), logger: logger}, nil
}

// RenderMarkdown converts Markdown to HTML.
func RenderMarkdown(src []byte) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RegisterRoutes mounts the page at / and the static directory at /static/.
func RegisterRoutes(r chi.Router, s *Site) {
	r.Get("/", s.handleIndex)
	if s.opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir)))
		r.Handle("/static/*", fs)
	}
}

func (s *Site) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(s.page)
}

func hasFile(dir, name string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
