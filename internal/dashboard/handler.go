package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"nhooyr.io/websocket"
)

// Prefix is the path prefix for every dashboard route.
const Prefix = "/_urlguard/"

// DefaultStatsInterval is the stats push period used when none is set.
const DefaultStatsInterval = 5 * time.Second

//go:embed static/dashboard.html
var staticFS embed.FS

// Handler returns an http.Handler that serves the dashboard routes.
func Handler(hub *Hub) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+Prefix, func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFS.ReadFile("static/dashboard.html")
		if err != nil {
			http.Error(w, "dashboard not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})

	mux.HandleFunc("GET "+Prefix+"ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // any origin, same as the REST API's CORS policy
		})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		hub.Register(r.Context(), conn)
		defer hub.Unregister(conn)

		// Discard client messages; returns once the client goes away.
		ctx := conn.CloseRead(r.Context())
		<-ctx.Done()
	})

	mux.HandleFunc("GET "+Prefix+"api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.StatsSnapshot())
	})

	mux.HandleFunc("GET "+Prefix+"api/events", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		writeJSON(w, hub.Events().Recent(limit))
	})

	mux.HandleFunc("GET "+Prefix+"api/model", func(w http.ResponseWriter, r *http.Request) {
		if hub.modelInfo == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, hub.modelInfo())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Run starts the periodic stats broadcast in background. It stops with ctx.
func Run(ctx context.Context, hub *Hub, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	go hub.StartStatsBroadcast(ctx, interval)
}
