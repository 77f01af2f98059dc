package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>kreuzsuche</title>
<style>
  body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
  input[type=text] { width: 70%; padding: 0.5rem; }
  button { padding: 0.5rem 1rem; }
  .result { border-bottom: 1px solid #ddd; padding: 0.5rem 0; }
  .source { font-weight: bold; }
  .target { color: #555; }
  .distance { color: #999; font-size: 0.85em; }
</style>
</head>
<body>
<h1>kreuzsuche</h1>
<p>Ask in English, find German sentences. {{.IndexSize}} sentences indexed.</p>
<form id="f">
  <input type="text" id="q" placeholder="Where is the train station?" autofocus>
  <button type="submit">Search</button>
</form>
<div id="results"></div>
<script>
document.getElementById('f').addEventListener('submit', async function (e) {
  e.preventDefault();
  const query = document.getElementById('q').value;
  const out = document.getElementById('results');
  out.textContent = 'Searching...';
  try {
    const resp = await fetch('/api/v1/search', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({query: query})
    });
    const data = await resp.json();
    if (!resp.ok) {
      out.textContent = data.error || 'search failed';
      return;
    }
    out.innerHTML = '';
    for (const r of data.results) {
      const div = document.createElement('div');
      div.className = 'result';
      const source = document.createElement('div');
      source.className = 'source';
      source.textContent = r.pair.source_text;
      const target = document.createElement('div');
      target.className = 'target';
      target.textContent = r.pair.target_text;
      const distance = document.createElement('div');
      distance.className = 'distance';
      distance.textContent = 'distance ' + r.distance.toFixed(4);
      div.append(source, target, distance);
      out.appendChild(div);
    }
  } catch (err) {
    out.textContent = 'request failed: ' + err;
  }
});
</script>
</body>
</html>
`))

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ IndexSize int }{IndexSize: s.engine.IndexSize()}
	if err := homeTemplate.Execute(w, data); err != nil {
		s.logger.Error("render home page", zap.Error(err))
	}
}
