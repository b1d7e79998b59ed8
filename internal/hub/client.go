package hub

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// CloseReasonNoPlan причина закрытия соединения при истёкшем или отозванном тарифе.
const CloseReasonNoPlan = "active plan required"

// AccessCheck повторно проверяет право пользователя оставаться в комнате.
type AccessCheck func(ctx context.Context) (bool, error)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Client одно websocket-соединение.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan any
	userUID string
	check   AccessCheck
	every   time.Duration
}

// Serve переводит запрос в websocket и подключает клиента к хабу.
// check вызывается каждые every; соединение закрывается, как только доступ пропал.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userUID string, check AccessCheck, every time.Duration) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan any, sendBuffer),
		userUID: userUID,
		check:   check,
		every:   every,
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		return conn.Close()
	}

	go c.writePump()
	go c.readPump()
	return nil
}

// readPump читает только управляющие кадры; входящие сообщения клиентов игнорируются.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read error", slog.String("user_uid", c.userUID), sl.Err(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var recheck <-chan time.Time
	if c.check != nil && c.every > 0 {
		t := time.NewTicker(c.every)
		defer t.Stop()
		recheck = t.C
	}
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.log.Debug("websocket write error", slog.String("user_uid", c.userUID), sl.Err(err))
				return
			}

		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-recheck:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			allowed, err := c.check(ctx)
			cancel()
			if err != nil {
				// доступ не отзываем из-за временной ошибки проверки
				c.hub.log.Warn("failed to recheck plan", slog.String("user_uid", c.userUID), sl.Err(err))
				continue
			}
			if !allowed {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, CloseReasonNoPlan),
					time.Now().Add(writeWait))
				return
			}
		}
	}
}
