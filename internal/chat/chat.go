// Package chat exposes the assistant over a WebSocket endpoint: session
// tokens gate the connection, every turn is persisted to chat history,
// and orchestrator failures surface to the visitor as a generic apology
// rather than a dropped connection.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charitybridge/nico/internal/agent"
	"github.com/charitybridge/nico/internal/llm"
)

// Close code sent when the session token fails verification. The client
// treats it as terminal and does not reconnect.
const CloseUnauthorized = 4001

// Wire message types.
const (
	MessageTypeAssistant = "assistant.message"
	MessageTypeError     = "error.message"
)

const senderAssistant = "assistant"

// errMsgUnexpected is shown to the visitor for any turn that fails;
// internal detail stays in the server log.
const errMsgUnexpected = "Unexpected error occurred. We apologize for the inconvenience. Please try again after a while."

// errMsgInvalid is shown when the inbound payload cannot be decoded.
// Such messages never reach the responder.
const errMsgInvalid = "Sorry, we could not read your message. Please try again."

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundMessage is the incoming WebSocket message format.
type inboundMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// outboundMessage is the outgoing WebSocket message format.
type outboundMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// Responder produces the assistant's reply for one chat turn.
type Responder interface {
	GenerateResponse(ctx context.Context, sessionID string) (*agent.Reply, error)
}

// HistoryAppender records chat turns for later retrieval.
type HistoryAppender interface {
	Append(ctx context.Context, sessionID string, role llm.Role, content string) error
}

// Handler serves the chat WebSocket endpoint.
type Handler struct {
	responder Responder
	history   HistoryAppender
	secret    string
	now       func() time.Time
}

// NewHandler builds a chat handler. The secret signs and verifies
// session tokens.
func NewHandler(responder Responder, history HistoryAppender, secret string) *Handler {
	return &Handler{
		responder: responder,
		history:   history,
		secret:    secret,
		now:       time.Now,
	}
}

// SessionID extracts and verifies the session token carried in the URL.
// It returns "" when the token is missing or forged.
func (h *Handler) SessionID(raw string) string {
	if !VerifySessionID(raw, h.secret) {
		return ""
	}
	return raw
}

// ServeWS upgrades the request and runs the session's message loop. The
// sessionID must already be verified via SessionID.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()

	// Every session opens with the assistant's greeting, recorded in
	// history so later completions see it as a prior turn.
	if err := h.history.Append(ctx, sessionID, llm.RoleAssistant, agent.Greeting); err != nil {
		log.Printf("chat: saving greeting: %v", err)
		return
	}
	h.send(conn, MessageTypeAssistant, agent.Greeting)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat: websocket read: %v", err)
			}
			return
		}

		var in inboundMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Printf("chat: invalid JSON received: %v", err)
			h.send(conn, MessageTypeError, errMsgInvalid)
			continue
		}
		if in.Message == "" {
			continue
		}

		h.handleTurn(ctx, conn, sessionID, in.Message)
	}
}

// handleTurn persists the user's message, generates the reply, persists
// and sends it. Failures after the user message is saved still leave the
// history consistent: the next turn simply sees an unanswered question.
func (h *Handler) handleTurn(ctx context.Context, conn *websocket.Conn, sessionID, message string) {
	if err := h.history.Append(ctx, sessionID, llm.RoleUser, message); err != nil {
		log.Printf("chat: saving user message: %v", err)
		h.send(conn, MessageTypeError, errMsgUnexpected)
		return
	}

	reply, err := h.responder.GenerateResponse(ctx, sessionID)
	if err != nil {
		log.Printf("chat: generating response for session %s: %v", sessionID, err)
		h.send(conn, MessageTypeError, errMsgUnexpected)
		return
	}
	log.Printf("chat: session %s model %s used %d tokens", sessionID, reply.Model, reply.TotalTokens)

	if err := h.history.Append(ctx, sessionID, llm.RoleAssistant, reply.Content); err != nil {
		log.Printf("chat: saving assistant message: %v", err)
	}
	if reply.Content != "" {
		h.send(conn, MessageTypeAssistant, reply.Content)
	}
}

func (h *Handler) send(conn *websocket.Conn, msgType, message string) {
	out := outboundMessage{
		Type:      msgType,
		Message:   message,
		Sender:    senderAssistant,
		Timestamp: h.now().Format(time.RFC3339),
	}
	if err := conn.WriteJSON(out); err != nil {
		log.Printf("chat: websocket write: %v", err)
	}
}
