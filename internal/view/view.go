// Package view renders the embeddable widget script and the demo page from a
// widget configuration. Rendering is a pure function of the configuration:
// no decision logic lives here, and every config string is escaped for the
// context it lands in.
package view

import (
	"html/template"
	"io"
	texttemplate "text/template"

	"github.com/chatdock/chatdock/internal/widget"
)

type scriptData struct {
	widget.Config

	KeySession     string
	KeyAutoOpened  string
	KeyDismissedAt string

	NoticeSessionFailed string
	NoticeSendFailed    string
}

// WriteScript renders the widget bootstrap script for the given
// configuration. The output is a standalone JS file; the host page includes
// it with a plain script tag.
func WriteScript(w io.Writer, cfg widget.Config) error {
	return scriptTmpl.Execute(w, scriptData{
		Config:              cfg,
		KeySession:          widget.KeySession,
		KeyAutoOpened:       widget.KeyAutoOpened,
		KeyDismissedAt:      widget.KeyDismissedAt,
		NoticeSessionFailed: widget.NoticeSessionFailed,
		NoticeSendFailed:    widget.NoticeSendFailed,
	})
}

type demoData struct {
	ScriptSrc template.URL
}

// WriteDemo renders the demo page that embeds the widget script.
func WriteDemo(w io.Writer, scriptSrc string) error {
	return demoTmpl.Execute(w, demoData{ScriptSrc: template.URL(scriptSrc)})
}

var scriptTmpl = texttemplate.Must(texttemplate.New("widget.js").
	Funcs(texttemplate.FuncMap{"js": texttemplate.JSEscapeString}).
	Parse(`(function () {
  'use strict';
  var cfg = {
    backendUrl: '{{js .BackendURL}}',
    headerText: '{{js .HeaderText}}',
    placeholder: '{{js .Placeholder}}',
    greeting: '{{js .Greeting}}',
    autoOpen: {{.AutoOpen}},
    autoOpenDelay: {{.AutoOpenDelay}},
    autoOpenMessage: '{{js .AutoOpenMessage}}',
    autoOpenOnce: {{.AutoOpenOnce}},
    openOnScroll: {{.OpenOnScroll}},
    exitIntent: {{.ExitIntent}},
    cooldownHours: {{.CooldownHours}}
  };
  var KEY_SESSION = '{{js .KeySession}}';
  var KEY_AUTO_OPENED = '{{js .KeyAutoOpened}}';
  var KEY_DISMISSED_AT = '{{js .KeyDismissedAt}}';
  var NOTICE_SESSION_FAILED = '{{js .NoticeSessionFailed}}';
  var NOTICE_SEND_FAILED = '{{js .NoticeSendFailed}}';

  // storage access is best effort; a blocked store behaves like an empty one
  function sget(store, key) { try { return store.getItem(key); } catch (_) { return null; } }
  function sset(store, key, val) { try { store.setItem(key, val); } catch (_) {} }

  var isMobile = /mobi|android|iphone|ipad|ipod/i.test(navigator.userAgent);

  var style = document.createElement('style');
  style.textContent = [
    '.cd-root{position:fixed;bottom:{{.OffsetY}}px;{{if eq .Position "bottom-left"}}left{{else}}right{{end}}:{{.OffsetX}}px;z-index:2147483000;font-family:{{js .FontFamily}}}',
    '.cd-btn{width:{{.ButtonSize}}px;height:{{.ButtonSize}}px;border:none;border-radius:50%;cursor:pointer;background:{{js .PrimaryColor}};color:{{js .TextColor}};font-size:{{.ButtonSize | printf "%.0f"}}px;line-height:1;box-shadow:{{js .Shadow}};display:flex;align-items:center;justify-content:center}',
    '.cd-btn svg{width:55%;height:55%;fill:{{js .TextColor}}}',
    '.cd-panel{display:none;flex-direction:column;width:{{.PanelWidth}}px;height:{{.PanelHeight}}px;margin-bottom:12px;border-radius:12px;overflow:hidden;background:#fff;box-shadow:{{js .Shadow}}}',
    '.cd-panel.cd-open{display:flex}',
    '.cd-header{display:flex;align-items:center;justify-content:space-between;padding:12px 16px;background:{{js .PrimaryColor}};color:{{js .TextColor}};font-weight:600}',
    '.cd-close{border:none;background:transparent;color:{{js .TextColor}};font-size:18px;cursor:pointer;padding:0 4px}',
    '.cd-msgs{flex:1;overflow-y:auto;padding:12px;display:flex;flex-direction:column;gap:8px}',
    '.cd-msg{max-width:80%;padding:8px 12px;border-radius:10px;font-size:14px;line-height:1.4;white-space:pre-wrap;word-break:break-word}',
    '.cd-user{align-self:flex-end;background:{{js .PrimaryColor}};color:{{js .TextColor}}}',
    '.cd-assistant{align-self:flex-start;background:#f1f5f9;color:#0f172a}',
    '.cd-system{align-self:center;background:transparent;color:#94a3b8;font-size:12px;font-style:italic}',
    '.cd-inputrow{display:flex;gap:8px;padding:10px;border-top:1px solid #e2e8f0}',
    '.cd-input{flex:1;border:1px solid #cbd5e1;border-radius:8px;padding:8px 10px;font-size:14px;outline:none;font-family:inherit}',
    '.cd-send{border:none;border-radius:8px;padding:8px 14px;cursor:pointer;background:{{js .PrimaryColor}};color:{{js .TextColor}};font-size:14px}'
  ].join('\n');
  document.head.appendChild(style);

  var root = document.createElement('div');
  root.className = 'cd-root';
  var panel = document.createElement('div');
  panel.className = 'cd-panel';

  var header = document.createElement('div');
  header.className = 'cd-header';
  var title = document.createElement('span');
  title.textContent = cfg.headerText;
  var closeBtn = document.createElement('button');
  closeBtn.className = 'cd-close';
  closeBtn.setAttribute('aria-label', 'Close chat');
  closeBtn.textContent = '×';
  header.appendChild(title);
  header.appendChild(closeBtn);

  var msgList = document.createElement('div');
  msgList.className = 'cd-msgs';

  var inputRow = document.createElement('div');
  inputRow.className = 'cd-inputrow';
  var input = document.createElement('input');
  input.className = 'cd-input';
  input.type = 'text';
  input.placeholder = cfg.placeholder;
  var sendBtn = document.createElement('button');
  sendBtn.className = 'cd-send';
  sendBtn.textContent = 'Send';
  inputRow.appendChild(input);
  inputRow.appendChild(sendBtn);

  panel.appendChild(header);
  panel.appendChild(msgList);
  panel.appendChild(inputRow);

  var toggle = document.createElement('button');
  toggle.className = 'cd-btn';
  toggle.setAttribute('aria-label', 'Open chat');
  toggle.innerHTML = '<svg viewBox="0 0 24 24"><path d="M20 2H4a2 2 0 0 0-2 2v18l4-4h14a2 2 0 0 0 2-2V4a2 2 0 0 0-2-2z"/></svg>';

  root.appendChild(panel);
  root.appendChild(toggle);
  document.body.appendChild(root);

  var isOpen = false;
  var fired = { delay: false, scroll: false, exit: false };
  var messages = [];
  var sessionId = null;
  var sessionPromise = null;

  // full re-render per mutation; message text goes in via textContent only
  function render() {
    msgList.textContent = '';
    for (var i = 0; i < messages.length; i++) {
      var div = document.createElement('div');
      div.className = 'cd-msg cd-' + messages[i].role;
      div.textContent = messages[i].content;
      msgList.appendChild(div);
    }
    msgList.scrollTop = msgList.scrollHeight;
  }

  function append(content, role) {
    messages.push({ content: content, role: role });
    render();
  }

  function openPanel() {
    if (isOpen) { return; }
    isOpen = true;
    panel.classList.add('cd-open');
    input.focus();
  }

  function closePanel(dismissed) {
    if (!isOpen) { return; }
    isOpen = false;
    panel.classList.remove('cd-open');
    if (dismissed) { sset(localStorage, KEY_DISMISSED_AT, String(Date.now())); }
  }

  function suppressedBySession() {
    return cfg.autoOpenOnce && sget(sessionStorage, KEY_AUTO_OPENED) === 'true';
  }

  function suppressedByCooldown() {
    if (cfg.cooldownHours <= 0) { return false; }
    var ts = parseInt(sget(localStorage, KEY_DISMISSED_AT) || '', 10);
    if (isNaN(ts)) { return false; }
    return Date.now() - ts < cfg.cooldownHours * 3600 * 1000;
  }

  function autoOpen(mech) {
    if (isOpen) { return; }
    if (fired[mech]) { return; }
    if (suppressedBySession() || suppressedByCooldown()) { return; }
    fired[mech] = true;
    sset(sessionStorage, KEY_AUTO_OPENED, 'true');
    openPanel();
    var text = cfg.autoOpenMessage || cfg.greeting;
    if (text) { append(text, 'assistant'); }
  }

  function ensureSession() {
    if (sessionId) { return Promise.resolve(sessionId); }
    var cached = sget(sessionStorage, KEY_SESSION);
    if (cached) { sessionId = cached; return Promise.resolve(cached); }
    // one in-flight creation shared by all callers
    if (!sessionPromise) {
      sessionPromise = fetch(cfg.backendUrl + '/api/collections/chat_sessions/records', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: '{}'
      }).then(function (res) {
        if (!res.ok) { throw new Error('status ' + res.status); }
        return res.json();
      }).then(function (rec) {
        sessionId = rec.id;
        sset(sessionStorage, KEY_SESSION, sessionId);
        return sessionId;
      }).catch(function (err) {
        sessionPromise = null;
        throw err;
      });
    }
    return sessionPromise;
  }

  function sendMessage() {
    var text = input.value.trim();
    if (!text) { return; }
    input.value = '';
    append(text, 'user');
    ensureSession().then(function (sid) {
      return fetch(cfg.backendUrl + '/api/collections/chat_messages/records', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ session: sid, content: text, role: 'user' })
      }).then(function (res) {
        if (!res.ok) { append(NOTICE_SEND_FAILED, 'system'); }
      }).catch(function () {
        append(NOTICE_SEND_FAILED, 'system');
      });
    }).catch(function () {
      append(NOTICE_SESSION_FAILED, 'system');
    });
  }

  toggle.addEventListener('click', function () {
    if (isOpen) { closePanel(true); return; }
    openPanel();
    if (messages.length === 0 && cfg.greeting) { append(cfg.greeting, 'assistant'); }
  });
  closeBtn.addEventListener('click', function () { closePanel(true); });
  sendBtn.addEventListener('click', sendMessage);
  input.addEventListener('keydown', function (e) {
    if (e.isComposing || e.keyCode === 229) { return; }
    if (e.key === 'Enter') { e.preventDefault(); sendMessage(); }
  });

  if (cfg.autoOpen && !suppressedBySession() && !suppressedByCooldown()) {
    setTimeout(function () { autoOpen('delay'); }, cfg.autoOpenDelay * 1000);
  }
  if (cfg.openOnScroll > 0) {
    window.addEventListener('scroll', function () {
      var span = document.documentElement.scrollHeight - window.innerHeight;
      if (span <= 0) { return; }
      if (window.scrollY / span * 100 >= cfg.openOnScroll) { autoOpen('scroll'); }
    }, { passive: true });
  }
  if (cfg.exitIntent && !isMobile) {
    document.addEventListener('mouseout', function (e) {
      if (e.relatedTarget) { return; }
      if (e.clientY <= 0) { autoOpen('exit'); }
    });
  }
})();
`))

var demoTmpl = template.Must(template.New("demo").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>chatdock demo</title>
  <style>
    body { margin:0; font-family: system-ui, sans-serif; color:#0f172a }
    .hero { padding:80px 24px; background:#0d1117; color:#e5e7eb }
    .hero h1 { margin:0 0 12px 0 }
    .hero code { background:#1f2937; padding:2px 6px; border-radius:6px }
    section { max-width:720px; margin:0 auto; padding:48px 24px }
    .filler { height:60vh; display:flex; align-items:center; justify-content:center; color:#94a3b8; border:1px dashed #cbd5e1; border-radius:12px; margin:24px 0 }
  </style>
</head>
<body>
  <div class="hero">
    <h1>chatdock</h1>
    <p>Embeddable chat widget. Add <code>&lt;script src=".../widget.js?..."&gt;</code> to any page.</p>
  </div>
  <section>
    <h2>Scroll down to test the scroll trigger</h2>
    <p>The widget button sits in the corner. Configure triggers through the
       script query string: <code>auto-open</code>, <code>auto-open-delay</code>,
       <code>open-on-scroll</code>, <code>exit-intent</code>, <code>cooldown</code>.</p>
    <div class="filler">keep scrolling…</div>
    <div class="filler">almost there…</div>
    <div class="filler">this far down the scroll trigger has fired</div>
  </section>
  <script src="{{.ScriptSrc}}"></script>
</body>
</html>`))
