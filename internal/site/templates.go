package site

// indexTemplate is the coin identification page. Result regions start
// hidden; the page controller toggles them.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>` + cssContent + `</style>
</head>
<body>
  <header class="top-bar">
    <h1>{{.Title}}</h1>
  </header>
  <main class="content">
    <section class="search-panel">
      <div class="search-bar">
        <input type="text" id="searchInput" placeholder="Search by king, dynasty or code..." autocomplete="off">
        <span class="search-hint">Enter</span>
      </div>
      <label class="upload-button" for="coinInput">Identify a coin from a photo</label>
      <input type="file" id="coinInput" accept="image/*">
    </section>

    <section id="image-id-results-container" class="results-region" style="display:none">
      <img id="coinPreview" alt="Uploaded coin" style="display:none">
      <div id="ai-prediction-result"></div>
    </section>

    <section id="results-container" class="results-region" style="display:none">
      <p id="loading-message" class="loading-message" style="display:none"></p>
      <div id="database-results-section" style="display:none">
        <h2>From our catalog</h2>
        <div id="database-results"></div>
      </div>
      <div id="web-results-section" style="display:none">
        <h2>From the web</h2>
        <div id="web-results"></div>
      </div>
    </section>

    <aside class="about">
      {{.About}}
    </aside>
  </main>
  {{if .WASM}}<script src="/static/wasm_exec.js"></script>
  <script>
    const go = new Go();
    WebAssembly.instantiateStreaming(fetch("/static/numisight.wasm"), go.importObject)
      .then((result) => go.run(result.instance))
      .catch((err) => console.error("loading page controller:", err));
  </script>{{end}}
</body>
</html>`

const cssContent = `
:root { --bg: #fdfbf7; --text: #2b2118; --accent: #9a6b2f; --card: #ffffff; --border: #e6dccd; --error: #b42318; }
* { box-sizing: border-box; }
body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: var(--bg); color: var(--text); }
.top-bar { padding: 1rem 2rem; border-bottom: 1px solid var(--border); }
.top-bar h1 { margin: 0; font-size: 1.4rem; color: var(--accent); }
.content { max-width: 960px; margin: 0 auto; padding: 2rem; }
.search-panel { display: flex; gap: 1rem; align-items: center; flex-wrap: wrap; margin-bottom: 2rem; }
.search-bar { flex: 1; position: relative; }
#searchInput { width: 100%; padding: 0.7rem 4rem 0.7rem 1rem; border: 1px solid var(--border); border-radius: 8px; font-size: 1rem; }
.search-hint { position: absolute; right: 0.8rem; top: 50%; transform: translateY(-50%); font-size: 0.75rem; opacity: 0.6; }
#coinInput { display: none; }
.upload-button { padding: 0.7rem 1rem; border-radius: 8px; background: var(--accent); color: #fff; cursor: pointer; }
.results-region { margin-bottom: 2rem; }
.loading-message { font-style: italic; opacity: 0.8; }
#coinPreview { max-width: 240px; border-radius: 8px; border: 1px solid var(--border); }
.ai-prediction-info { margin: 1rem 0; font-size: 1.1rem; }
.result-card { background: var(--card); border: 1px solid var(--border); border-radius: 8px; padding: 1rem; margin-bottom: 1rem; }
.db-result-content { display: flex; gap: 1rem; }
.db-coin-image { max-width: 120px; border-radius: 4px; }
.coin-code { font-family: monospace; opacity: 0.8; }
.engine-tag { font-size: 0.7rem; padding: 0.1rem 0.4rem; border-radius: 4px; background: var(--border); vertical-align: middle; }
.read-more { color: var(--accent); }
.error-message { color: var(--error); }
.about { margin-top: 3rem; padding-top: 1rem; border-top: 1px solid var(--border); font-size: 0.9rem; }
`
