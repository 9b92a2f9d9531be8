/*
Package handler provides the HTTP handlers and routing setup for the relay
server.

This file contains the HandleWebSocket function, which rate limits and upgrades
incoming connection requests, then runs the session lifecycle for the upgraded
connection.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"minichat/internal/app/chat"
	"minichat/internal/pkg/errs"
	"minichat/internal/pkg/limiter"
	"minichat/internal/pkg/logx"
	"minichat/internal/pkg/resp"
	"minichat/internal/transport/ws"
)

// HandleWebSocket creates the HandlerFunc that accepts relay connections. The
// handler blocks for the lifetime of each connection's session.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Logger().Warn().Str("ip", ip).Msg("WebSocket connection rejected: rate limit exceeded.")
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := uuid.NewString()
		logx.Logger().Info().Str("conn_id", connID).Str("ip", ip).Msg("WebSocket connection established.")

		conn := ws.NewConn(wsConn)
		defer conn.Close()

		session := chat.NewSession(deps.Pool, conn, connID)
		session.Run()
	}
}
