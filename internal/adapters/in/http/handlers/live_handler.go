// internal/adapters/in/http/handlers/live_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	"optivista/internal/application/auth"
	"optivista/internal/application/live"
	"optivista/internal/domain/catalog"
)

const (
	liveSendBuffer   = 32
	livePingInterval = 30 * time.Second
	livePongWait     = 60 * time.Second
	liveWriteWait    = 10 * time.Second
	liveReadLimit    = 1 << 16
)

// Stream names a client may ask for with ?streams=.
const (
	StreamImages    = "images"
	StreamOrders    = "orders"
	StreamDownloads = "downloads"
	StreamMe        = "me"
	StreamMyOrders  = "my-orders"
)

// LiveHandler upgrades to a WebSocket and pushes live subscription results.
//
//	GET /live?streams=images,me&category=nature&token=<ID_TOKEN>
//
// The token may also come from the Authorization header or later through an
// {"type":"auth"} message.
type LiveHandler struct {
	deps     live.Deps
	verifier auth.Verifier
	admins   httpmw.AdminChecker
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type LiveConfig struct {
	AllowedOrigins []string
}

func NewLiveHandler(deps live.Deps, verifier auth.Verifier, admins httpmw.AdminChecker, cfg LiveConfig, logger *zap.Logger) *LiveHandler {
	h := &LiveHandler{
		deps:     deps,
		verifier: verifier,
		admins:   admins,
		log:      named(logger, "live"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	names, err := parseStreams(r.URL.Query().Get("streams"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cat, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token, _ = httpmw.BearerToken(r)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newLiveClient(h, conn)
	h.log.Debug("live client connected",
		zap.Strings("streams", names),
		zap.String("remote", r.RemoteAddr),
	)
	c.run(names, cat, token)
	h.log.Debug("live client disconnected", zap.String("remote", r.RemoteAddr))
}

func parseStreams(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{StreamImages}, nil
	}
	seen := map[string]bool{}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		switch s {
		case StreamImages, StreamOrders, StreamDownloads, StreamMe, StreamMyOrders:
		default:
			return nil, errUnknownStream(s)
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return []string{StreamImages}, nil
	}
	return out, nil
}

type errUnknownStream string

func (e errUnknownStream) Error() string { return "unknown stream " + string(e) }

// parseCategory accepts "" and "all" as no filter.
func parseCategory(raw string) (catalog.Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	return catalog.ParseCategory(raw)
}
