package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	identity IdentityFunc
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler builds the session socket handler. checkOrigin may be nil to accept any origin.
func NewWSHandler(service *app.QuizService, identity IdentityFunc, log *zap.Logger, checkOrigin func(r *http.Request) bool) *WSHandler {
	if identity == nil {
		identity = UserFromRequest
	}
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		service:  service,
		identity: identity,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type submitPayload struct {
	Confirm bool `json:"confirm"`
}

// confirmSubmitPayload asks the learner to confirm submitting with unanswered questions.
type confirmSubmitPayload struct {
	Unanswered []string `json:"unanswered"`
	Count      int      `json:"count"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS starts a session for the requested quiz and drives it from socket messages.
// Every state change is pushed to the client as a "session" message. The session ends
// with the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	userID, err := h.identity(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// quiz errors go out as an error frame, not a failed handshake
	session, err := h.service.Start(r.Context(), quizID, userID)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.log.Error("start session failed", zap.String("quiz_id", quizID), zap.Error(err))
		}
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: errorMessage(err)}})
		return
	}
	defer h.service.End(session.ID())

	updates, cancel, err := session.Subscribe()
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: errorMessage(err)}})
		return
	}
	defer cancel()

	log := h.log.With(zap.String("session_id", session.ID()))
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msgType string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		reply("error", errorPayload{Message: errorMessage(err)})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, inbound, reply); err != nil {
			fail(err)
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one client message to the session. State changes reach the client
// through the subscription; only direct answers go through reply.
func (h *WSHandler) dispatch(session *app.Session, msg inboundMessage, reply func(string, any)) error {
	switch msg.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			reply("error", errorPayload{Message: "invalid answer payload"})
			return nil
		}
		question, ok := session.Question(payload.QuestionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		_, err := session.Answer(payload.QuestionID, domain.DecodeAnswer(question, payload.Value))
		return err
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			reply("error", errorPayload{Message: "invalid goto payload"})
			return nil
		}
		_, err := session.GoTo(payload.Index)
		return err
	case "next":
		_, err := session.Next()
		return err
	case "previous":
		_, err := session.Previous()
		return err
	case "submit":
		var payload submitPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid submit payload"})
				return nil
			}
		}
		snap, err := session.Snapshot()
		if err != nil {
			return err
		}
		if snap.Phase == domain.PhaseRunning && len(snap.Unanswered) > 0 && !payload.Confirm {
			reply("confirmSubmit", confirmSubmitPayload{Unanswered: snap.Unanswered, Count: len(snap.Unanswered)})
			return nil
		}
		_, err = session.Submit(domain.TriggerManual)
		return err
	case "retry":
		_, err := session.Retry()
		return err
	case "snapshot":
		snap, err := session.Snapshot()
		if err != nil {
			return err
		}
		reply("session", snap)
		return nil
	default:
		reply("error", errorPayload{Message: "unsupported message type"})
		return nil
	}
}
