package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/services"
	"stagecast/pkg/validation"
)

const (
	EventReceiveMessage  = "receive_message"
	EventMessageWithheld = "message_withheld"
	EventRoomJoined      = "room_joined"
	EventError           = "error"
)

type WSConfig struct {
	PingInterval  time.Duration
	PongTimeout   time.Duration
	WriteTimeout  time.Duration
	SendQueueSize int

	// Zero disables the corresponding limit.
	MessagesPerSecond float64
	MessageBurst      int
	MaxMessageBytes   int64
}

// WSServer terminates websocket sessions and routes their events into the
// coordination services. Each connection's inbound frames are handled
// sequentially by its read loop, so a single sender's chat messages reach the
// moderation gate and fan-out in the order they were sent.
type WSServer struct {
	cfg        WSConfig
	hub        *Hub
	rooms      ports.RoomService
	director   ports.DirectorService
	moderation ports.ModerationGate
	ledger     ports.LedgerService
	stats      *services.MetricsService
	auth       services.AuthService
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

func NewWSServer(
	cfg WSConfig,
	hub *Hub,
	rooms ports.RoomService,
	director ports.DirectorService,
	moderation ports.ModerationGate,
	ledger ports.LedgerService,
	stats *services.MetricsService,
	auth services.AuthService,
	logger *zap.Logger,
) *WSServer {
	return &WSServer{
		cfg:        cfg,
		hub:        hub,
		rooms:      rooms,
		director:   director,
		moderation: moderation,
		ledger:     ledger,
		stats:      stats,
		auth:       auth,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is enforced at the edge
			},
		},
	}
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type session struct {
	connID      domain.ConnID
	userID      domain.UserID
	displayName string
}

// HandleConnection upgrades the request and runs the connection's read loop.
func (s *WSServer) HandleConnection(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := s.identify(c)
	client := newWSClient(conn, s.cfg.SendQueueSize, s.cfg.WriteTimeout, s.cfg.PingInterval, s.logger)
	s.hub.Register(sess.connID, sess.userID, client)

	s.logger.Info("websocket connected",
		zap.String("conn_id", string(sess.connID)),
		zap.String("user_id", string(sess.userID)))

	if s.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
		return nil
	})

	var limiter *rate.Limiter
	if s.cfg.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.MessageBurst)
	}

	defer s.disconnect(sess)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		if limiter != nil && !limiter.Allow() {
			s.hub.SendTo(sess.connID, EventError, gin.H{"message": "message rate limit exceeded"})
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.hub.SendTo(sess.connID, EventError, gin.H{"message": "malformed frame"})
			continue
		}

		s.dispatch(c.Request.Context(), sess, frame)
	}
}

// identify resolves the connection's user from an optional token query
// parameter. Connections without a valid token join as anonymous viewers.
func (s *WSServer) identify(c *gin.Context) session {
	sess := session{connID: domain.ConnID(uuid.New().String())}

	if token := c.Query("token"); token != "" && s.auth != nil {
		if claims, err := s.auth.ValidateToken(token); err == nil {
			sess.userID = claims.UserID
			sess.displayName = claims.Username
			return sess
		}
	}

	sess.userID = domain.UserID("viewer-" + uuid.New().String()[:8])
	sess.displayName = "viewer"
	return sess
}

func (s *WSServer) disconnect(sess session) {
	left := s.hub.Unregister(sess.connID)
	for _, streamID := range left {
		s.stats.RecordViewerLeft(streamID)
	}

	s.logger.Info("websocket disconnected",
		zap.String("conn_id", string(sess.connID)),
		zap.Int("rooms_left", len(left)))
}

func (s *WSServer) dispatch(ctx context.Context, sess session, frame inboundFrame) {
	switch frame.Event {
	case "join_room":
		s.handleJoin(ctx, sess, frame.Data)
	case "leave_room":
		s.handleLeave(sess, frame.Data)
	case "send_message":
		s.handleChat(ctx, sess, frame.Data)
	case "director_mute_guest":
		s.handleMuteGuest(ctx, sess, frame.Data)
	case "director_remove_guest":
		s.handleRemoveGuest(ctx, sess, frame.Data)
	case "director_switch_scene":
		s.handleSwitchScene(ctx, sess, frame.Data)
	case "donation_submitted":
		s.handleDonation(ctx, sess, frame.Data)
	default:
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "unknown event: " + frame.Event})
	}
}

func (s *WSServer) handleJoin(ctx context.Context, sess session, data json.RawMessage) {
	var req struct {
		StreamID   string `json:"stream_id"`
		AccessCode string `json:"access_code"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.StreamID == "" {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "stream_id is required"})
		return
	}

	streamID := domain.StreamID(req.StreamID)
	if err := s.rooms.ValidateAccess(ctx, streamID, req.AccessCode); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": err.Error()})
		return
	}

	if s.hub.Join(sess.connID, streamID) {
		s.stats.RecordViewerJoined(streamID)
	}

	s.hub.SendTo(sess.connID, EventRoomJoined, gin.H{
		"stream_id": req.StreamID,
		"viewers":   s.hub.RoomSize(streamID),
	})
}

func (s *WSServer) handleLeave(sess session, data json.RawMessage) {
	var req struct {
		StreamID string `json:"stream_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.StreamID == "" {
		return
	}

	if s.hub.Leave(sess.connID, domain.StreamID(req.StreamID)) {
		s.stats.RecordViewerLeft(domain.StreamID(req.StreamID))
	}
}

func (s *WSServer) handleChat(ctx context.Context, sess session, data json.RawMessage) {
	var req struct {
		StreamID string `json:"stream_id"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.StreamID == "" {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "stream_id is required"})
		return
	}
	if err := validation.ValidateChatText(req.Text); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": err.Error()})
		return
	}

	streamID := domain.StreamID(req.StreamID)
	allowed, err := s.moderation.Check(ctx, streamID, sess.userID, req.Text)
	if err != nil {
		s.logger.Warn("moderation check failed", zap.Error(err))
	}
	if !allowed {
		// Only the sender learns the message was withheld.
		s.hub.SendTo(sess.connID, EventMessageWithheld, gin.H{
			"stream_id": req.StreamID,
			"reason":    "message did not pass moderation",
		})
		s.stats.RecordWithheldMessage(streamID)
		return
	}

	msg := domain.ChatMessage{
		ID:         uuid.New().String(),
		StreamID:   streamID,
		SenderID:   sess.userID,
		SenderName: sess.displayName,
		Text:       req.Text,
		SentAt:     time.Now(),
	}

	s.hub.Broadcast(streamID, EventReceiveMessage, msg)
	s.stats.RecordMessage(streamID)
}

func (s *WSServer) handleMuteGuest(ctx context.Context, sess session, data json.RawMessage) {
	var req struct {
		StreamID string `json:"stream_id"`
		GuestID  string `json:"guest_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "malformed director command"})
		return
	}

	if err := s.director.MuteGuest(ctx, sess.userID, domain.StreamID(req.StreamID), domain.GuestID(req.GuestID)); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": err.Error()})
	}
}

func (s *WSServer) handleRemoveGuest(ctx context.Context, sess session, data json.RawMessage) {
	var req struct {
		StreamID string `json:"stream_id"`
		GuestID  string `json:"guest_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "malformed director command"})
		return
	}

	if err := s.director.RemoveGuest(ctx, sess.userID, domain.StreamID(req.StreamID), domain.GuestID(req.GuestID)); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": err.Error()})
	}
}

func (s *WSServer) handleSwitchScene(ctx context.Context, sess session, data json.RawMessage) {
	var req struct {
		StreamID string `json:"stream_id"`
		Layout   string `json:"layout"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "malformed director command"})
		return
	}

	if err := s.director.SwitchScene(ctx, sess.userID, domain.StreamID(req.StreamID), domain.SceneLayout(req.Layout)); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": err.Error()})
	}
}

func (s *WSServer) handleDonation(ctx context.Context, sess session, data json.RawMessage) {
	var req struct {
		StreamID    string `json:"stream_id"`
		ReceiverID  string `json:"receiver_id"`
		AmountCents int64  `json:"amount_cents"`
		Method      string `json:"method"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": "malformed donation"})
		return
	}

	receipt, err := s.ledger.ProcessDonation(ctx, ports.DonationRequest{
		StreamID:   domain.StreamID(req.StreamID),
		SenderID:   sess.userID,
		ReceiverID: domain.UserID(req.ReceiverID),
		Amount:     domain.Money(req.AmountCents),
		Method:     domain.PaymentMethod(req.Method),
	})
	if err != nil {
		s.hub.SendTo(sess.connID, EventError, gin.H{"message": err.Error()})
		return
	}

	s.hub.SendTo(sess.connID, "donation_receipt", receipt)
}
