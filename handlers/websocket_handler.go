package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/raffle-system/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true // Для разработки разрешаем все
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeWs обрабатывает WebSocket запросы для конкретного конкурса.
// Клиент подключается к /ws/competitions/{competitionID} и получает
// события продаж и выигрышей в реальном времени.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		http.Error(w, "Missing or invalid competitionID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		slog.Error("failed to upgrade websocket connection", "competition_id", competitionID, "error", err)
		return
	}

	// ID комнаты соответствует ID конкурса
	roomID := live.CompetitionRoom(competitionID)

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256), // Буферизированный канал
		Room: roomID,
	}
	client.Hub.Register <- client

	// Горутины чтения и записи живут, пока клиент не отключится.
	go client.WritePump()
	go client.ReadPump()

	slog.Debug("websocket client registered", "room", roomID)
}
