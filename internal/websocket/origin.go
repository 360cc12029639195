package websocket

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

const upgradeBufferSize = 1024

// allowedOriginSet parses ALLOWED_ORIGINS into a lookup set. An empty or
// unset variable falls back to the local development frontend.
func allowedOriginSet() map[string]bool {
	set := make(map[string]bool)
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			set[origin] = true
		}
	}
	if len(set) == 0 {
		set["http://localhost:3000"] = true
	}
	return set
}

// NewSecureUpgrader builds an upgrader that only accepts handshakes from
// the origins listed in ALLOWED_ORIGINS. Same-origin requests, which carry
// no Origin header, always pass.
func NewSecureUpgrader(logger *slog.Logger) websocket.Upgrader {
	allowed := allowedOriginSet()

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed[origin] {
				return true
			}

			if logger != nil {
				logger.Warn("rejected websocket connection",
					slog.String("origin", origin),
					slog.String("remote_ip", r.RemoteAddr))
			}
			return false
		},
		ReadBufferSize:  upgradeBufferSize,
		WriteBufferSize: upgradeBufferSize,
	}
}

// DefaultUpgrader accepts every origin. Development only.
func DefaultUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  upgradeBufferSize,
		WriteBufferSize: upgradeBufferSize,
	}
}
