package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/service"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
	feedSendBuffer = 16
)

// feedSnapshot is the first message a subscriber receives.
type feedSnapshot struct {
	Type  string             `json:"type"`
	State domain.RaffleState `json:"state"`
}

type feedClient struct {
	conn     *websocket.Conn
	send     chan []byte
	raffleID string
}

type feedMessage struct {
	raffleID string
	payload  []byte
}

// FeedHandler streams round events to the websocket subscribers of each raffle. It is the
// RoundPublisher of the lifecycle service.
type FeedHandler struct {
	svc      RaffleService
	upgrader websocket.Upgrader

	clients    map[string]map[*feedClient]struct{}
	broadcast  chan feedMessage
	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
}

func NewFeedHandler(svc RaffleService, allowedOrigins []string) *FeedHandler {
	h := &FeedHandler{
		svc:        svc,
		clients:    make(map[string]map[*feedClient]struct{}),
		broadcast:  make(chan feedMessage, 64),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return h
}

// SetService wires the raffle service after construction, since the service publishes to h.
func (h *FeedHandler) SetService(svc RaffleService) {
	h.svc = svc
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run owns the subscriber set until ctx is done. It must be called once.
func (h *FeedHandler) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*feedClient]struct{})
			return
		case client := <-h.register:
			if h.clients[client.raffleID] == nil {
				h.clients[client.raffleID] = make(map[*feedClient]struct{})
			}
			h.clients[client.raffleID][client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case msg := <-h.broadcast:
			for client := range h.clients[msg.raffleID] {
				select {
				case client.send <- msg.payload:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *FeedHandler) drop(client *feedClient) {
	clients := h.clients[client.raffleID]
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.raffleID)
	}
}

// Publish queues event for the raffle's subscribers. It never blocks the caller: events
// are dropped when the hub is saturated.
func (h *FeedHandler) Publish(event domain.RoundEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("failed to encode round event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- feedMessage{raffleID: event.RaffleID, payload: payload}:
	default:
		zap.L().Warn("feed saturated, round event dropped",
			zap.String("raffle_id", event.RaffleID),
			zap.String("type", string(event.Type)))
	}
}

// HandleFeed godoc
// @Summary      Subscribe to round events
// @Description  Upgrades to a websocket. The first message is a snapshot of the raffle state, then one message per round opened or drawn.
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true   "Raffle ID"
// @Param        username  query     string  false  "Caller username"
// @Success      101       {object}  domain.RoundEvent
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/feed [get]
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	raffleID := ctx.Param("raffleID")

	state, err := h.svc.GetRaffleState(ctx.Request.Context(), raffleID, usernameFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("HandleFeed -> h.svc.GetRaffleState -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Debug("feed upgrade failed", zap.String("raffle_id", raffleID), zap.Error(err))
		return
	}

	snapshot, err := json.Marshal(feedSnapshot{Type: "snapshot", State: state})
	if err != nil {
		_ = conn.Close()
		return
	}

	client := &feedClient{
		conn:     conn,
		send:     make(chan []byte, feedSendBuffer),
		raffleID: raffleID,
	}
	client.send <- snapshot
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; subscribers never send data.
func (c *feedClient) readPump(h *FeedHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("feed connection closed", zap.String("raffle_id", c.raffleID), zap.Error(err))
			}
			return
		}
	}
}
