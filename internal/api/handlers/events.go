// events.go — SSE (Server-Sent Events) endpoint уведомлений.
// Тосты о сохранении и архивации команд рассылаются всем подключённым
// администраторам; каждый SSE-клиент обслуживается своей горутиной.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// heartbeatInterval — период keep-alive комментариев в SSE-потоке.
// Прокси с idle-таймаутом не должен рвать тихое соединение.
const heartbeatInterval = 30 * time.Second

// StreamNotifications обрабатывает GET /api/v1/events/notifications.
// Формат: event: notification\ndata: {json}\n\n
// Отключение клиента ловится через context cancel.
func (h *APIHandler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Отключаем буферизацию Nginx

	// http.ResponseController находит оригинальный http.Flusher через
	// Unwrap() обёрток middleware (logging, metrics).
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		http.Error(w, "SSE не поддерживается", http.StatusInternalServerError)
		return
	}

	events, cancel := h.broker.Subscribe()
	defer cancel()

	h.logger.Debug("SSE клиент подключён",
		slog.String("remote_addr", r.RemoteAddr),
	)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE клиент отключён",
				slog.String("remote_addr", r.RemoteAddr),
			)
			return
		case <-ticker.C:
			// Keep-alive комментарий, клиентом игнорируется.
			fmt.Fprint(w, ": heartbeat\n\n")
			_ = rc.Flush()
		case n, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("Ошибка сериализации уведомления", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			_ = rc.Flush()
		}
	}
}
