package devserver

import (
	"html/template"
	"net/http"
)

func serveConsole(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = consoleTmpl.Execute(w, nil)
}

var consoleTmpl = template.Must(template.New("console").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>chatdock console</title>
  <style>
    :root{ --bg:#0d1117; --panel:#111827; --border:#1f2937; --fg:#e5e7eb; --muted:#9ca3af; --accent:#22c55e }
    *{ box-sizing:border-box }
    body { margin:0; padding:24px; background:var(--bg); color:var(--fg); font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial }
    .wrap { max-width: 920px; margin: 0 auto }
    h1 { margin:0 0 12px 0; font-weight:700 }
    .term { border:1px solid var(--border); border-radius:10px; background:var(--panel); overflow:hidden }
    .screen { height:480px; overflow:auto; padding:14px; font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:14px; line-height:1.5 }
    .line { white-space: pre-wrap; word-break: break-word }
    .ts { color:var(--muted) }
    .sess { color:#60a5fa }
    .role-system { color:var(--muted); font-style:italic }
    small{ color:var(--muted); display:block; margin-top:10px }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>incoming messages</h1>
    <div class="term"><div id="log" class="screen"></div></div>
    <small>Live feed of widget messages written to this backend.</small>
  </div>
  <script>
    const log = document.getElementById('log');
    function append(m){
      const div = document.createElement('div');
      div.className = 'line role-' + (m.role || 'user');
      const ts = new Date(m.ts).toLocaleTimeString([], { hour12: false });
      const tsSpan = document.createElement('span');
      tsSpan.className = 'ts';
      tsSpan.textContent = '[' + ts + '] ';
      const sessSpan = document.createElement('span');
      sessSpan.className = 'sess';
      sessSpan.textContent = (m.session || '').slice(0, 8);
      div.appendChild(tsSpan);
      div.appendChild(sessSpan);
      div.appendChild(document.createTextNode(': ' + (m.content || '')));
      log.appendChild(div);
      log.scrollTop = log.scrollHeight;
    }
    const wsProto = location.protocol === 'https:' ? 'wss' : 'ws';
    const basePath = location.pathname.endsWith('/') ? location.pathname : (location.pathname + '/');
    const ws = new WebSocket(wsProto + '://' + location.host + basePath + 'ws');
    ws.onmessage = (e) => { try { append(JSON.parse(e.data)); } catch (_) {} };
  </script>
</body>
</html>`))
