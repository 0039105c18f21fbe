package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/numisight/numisight/internal/config"
	"github.com/numisight/numisight/internal/page"
)

func TestAssetURLPrefix(t *testing.T) {
	tests := []struct {
		static, asset, want string
	}{
		{"static", "static/asset", "/static/asset"},
		{"static", "static/images/coins", "/static/images/coins"},
		{"/srv/www", "/srv/www/asset", "/static/asset"},
		{"static", "/elsewhere/coins", "/static/asset"},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.Server.StaticDir, cfg.Catalog.AssetDir = tt.static, tt.asset
		if got := assetURLPrefix(cfg); got != tt.want {
			t.Errorf("assetURLPrefix(%q, %q) = %q, want %q", tt.static, tt.asset, got, tt.want)
		}
	}
}

func TestPrintPage(t *testing.T) {
	doc := page.NewDocument()
	doc.Node(page.IDPrediction).SetHTML(`<div class="ai-prediction-info">AI Prediction: <strong>Gupta</strong> (Confidence: 0.9)</div>`)
	doc.Node(page.IDDatabaseResults).SetHTML(`<div class="result-card db-result"><div class="db-result-content">` +
		`<div class="db-coin-image-container"><img src="/static/asset/a.jpg"></div>` +
		`<div class="db-coin-details"><h3>Chandragupta II - Gupta</h3><p class="coin-code">Code: AG-01</p><p>Archer type</p></div></div></div>`)
	doc.Node(page.IDDatabaseSection).Show()

	var buf bytes.Buffer
	printPage(&buf, doc)
	out := buf.String()

	for _, want := range []string{
		"AI Prediction: Gupta (Confidence: 0.9)",
		"Catalog (1):",
		"  1. Image: /static/asset/a.jpg",
		"     Chandragupta II - Gupta",
		"     Code: AG-01",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Web (") {
		t.Error("hidden web section should not print")
	}
}

func TestPrintPageEmpty(t *testing.T) {
	var buf bytes.Buffer
	printPage(&buf, page.NewDocument())
	if got := buf.String(); got != "No results found.\n" {
		t.Errorf("output = %q", got)
	}
}
