// Package hub рассылает события сигналов подключённым websocket-клиентам.
package hub

import (
	"context"
	"log/slog"
	"sync"
)

// Gauge получает текущее число подключений.
type Gauge interface {
	Set(float64)
}

// Hub реестр клиентов комнаты сигналов. Все изменения реестра проходят через Run.
type Hub struct {
	log        *slog.Logger
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan any
	done       chan struct{}
	mu         sync.RWMutex
	gauge      Gauge
}

// New создаёт хаб. gauge может быть nil.
func New(log *slog.Logger, gauge Gauge) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan any, 64),
		done:       make(chan struct{}),
		gauge:      gauge,
	}
}

// Run обслуживает регистрацию и рассылку до отмены ctx, после чего отключает всех клиентов.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()
		h.setGauge(0)
	}()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.setGauge(n)
			h.log.Debug("client registered", slog.String("user_uid", c.userUID), slog.Int("total", n))

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ctx.Done():
			return
		}
	}
}

// Broadcast ставит событие в очередь рассылки всем клиентам.
func (h *Hub) Broadcast(msg any) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Count число подключённых клиентов.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	close(c.send)
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
	h.log.Debug("client unregistered", slog.String("user_uid", c.userUID), slog.Int("total", n))
}

func (h *Hub) fanOut(msg any) {
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("client disconnected due to full send channel", slog.String("user_uid", c.userUID))
		h.remove(c)
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.Set(float64(n))
	}
}
