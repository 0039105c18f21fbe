package page

import (
	"bytes"
	"html/template"
	"strings"
)

const (
	summaryLimit     = 300
	minFullTextRunes = 10
)

var (
	dbCardTmpl = template.Must(template.New("db").Parse(
		`<div class="result-card db-result"><div class="db-result-content">` +
			`{{if .ImageURL}}<div class="db-coin-image-container"><img src="{{.ImageURL}}" alt="Image of {{.Code}}" class="db-coin-image"></div>{{end}}` +
			`<div class="db-coin-details"><h3>{{.KingName}} - {{.Dynasty}}</h3><p class="coin-code">Code: {{.Code}}</p><p>{{.Details}}</p></div>` +
			`</div></div>`))

	webCardTmpl = template.Must(template.New("web").Parse(
		`<div class="result-card web-result">` +
			`<h3>{{.Title}} <span class="engine-tag">{{.Engine}}</span></h3>` +
			`<p>{{.Summary}}</p>` +
			`<a href="{{.Link}}" target="_blank" class="read-more">Read more on their site</a>` +
			`</div>`))

	predictionTmpl = template.Must(template.New("prediction").Parse(
		`<div class="ai-prediction-info">AI Prediction: <strong>{{.PredictedClass}}</strong> (Confidence: {{.Probability}})</div>`))

	errorCardTmpl = template.Must(template.New("error").Parse(
		`<div class="result-card"><p class="error-message">Error: {{.}}</p></div>`))
)

// Summary is the body text of a web card: the start of the page text when
// the page was read, else the engine's snippet.
func Summary(r WebResult) string {
	text := []rune(r.FullText)
	if len(text) <= minFullTextRunes {
		return r.Snippet
	}
	if len(text) > summaryLimit {
		text = text[:summaryLimit]
	}
	return string(text) + "..."
}

func databaseCards(results []DbResult) (string, error) {
	var b strings.Builder
	for _, r := range results {
		if err := dbCardTmpl.Execute(&b, r); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func webCards(results []WebResult) (string, error) {
	var b strings.Builder
	for _, r := range results {
		data := struct {
			WebResult
			Summary string
		}{r, Summary(r)}
		if err := webCardTmpl.Execute(&b, data); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func predictionHTML(p Prediction) (string, error) {
	return execute(predictionTmpl, p)
}

func errorCard(msg string) string {
	s, err := execute(errorCardTmpl, msg)
	if err != nil {
		return `<div class="result-card"><p class="error-message">Error</p></div>`
	}
	return s
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
