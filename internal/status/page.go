package status

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/logging"
)

var pageTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Mr.Gnome VPN Telegram Bot</title>
<style>
body { font-family: sans-serif; background: #f3f4f6; display: flex; flex-direction: column; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
.card { background: #fff; border-radius: 8px; padding: 24px; width: 100%; max-width: 420px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.row { display: flex; align-items: center; gap: 16px; }
.dot { width: 16px; height: 16px; border-radius: 50%; }
.online { background: #22c55e; }
.offline { background: #ef4444; }
.muted { color: #6b7280; font-size: 14px; }
button { margin-top: 16px; padding: 8px 16px; border: 0; border-radius: 6px; background: #111827; color: #fff; cursor: pointer; }
</style>
</head>
<body>
<h1>Mr.Gnome VPN Telegram Bot</h1>
<p class="muted">Your VPN shop Telegram bot service status</p>
<div class="card">
  <h2>Telegram Bot Status</h2>
  <div class="row">
    <div class="dot {{.State}}"></div>
    <div>
      <p><strong>{{if .Online}}Bot is Online{{else}}Bot is Offline{{end}}</strong></p>
      <p class="muted">Last checked: {{.CheckedAt.Format "15:04:05 MST"}}</p>
      {{if .Detail}}<p class="muted">{{.Detail}}</p>{{end}}
    </div>
  </div>
  <form method="get" action="/">
    <button type="submit">Check Again</button>
  </form>
</div>
</body>
</html>
`))

// Handler serves the status page at / and the JSON result at /api/status.
// Every request runs a fresh check.
type Handler struct {
	prober *Prober
	logger *logrus.Entry
	mux    *http.ServeMux
}

// NewHandler constructs a Handler over prober.
func NewHandler(prober *Prober, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	h := &Handler{prober: prober, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("/api/status", h.handleAPI)
	h.mux.HandleFunc("/", h.handlePage)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	result := h.prober.Check(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, result); err != nil {
		h.logger.WithField("event", "status_render_error").WithError(err).Error("failed to render status page")
	}
}

func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	result := h.prober.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.WithField("event", "status_write_error").WithError(err).Error("failed to encode status response")
	}
}
