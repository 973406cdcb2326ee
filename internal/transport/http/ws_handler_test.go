package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
	"quiz-engine/internal/metrics"
)

func TestWebSocketSessionFlow(t *testing.T) {
	server, attempts := newTestServer(t, sampleQuizzes())

	conn := dial(t, server, "/ws?quizId=quiz-1&userId=u1")
	defer conn.Close()

	snap := readSession(t, conn, func(s app.Snapshot) bool { return true })
	if snap.Phase != domain.PhaseRunning || snap.QuestionCount != 2 || snap.RemainingSeconds != 60 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
	if snap.Current.ID != "q1" || len(snap.Current.Options) != 3 {
		t.Fatalf("expected first question rendered, got %+v", snap.Current)
	}

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": "o2"})
	readSession(t, conn, func(s app.Snapshot) bool { return s.AnsweredCount == 1 })

	send(t, conn, "submit", nil)
	confirm := readType(t, conn, "confirmSubmit")
	var pending confirmSubmitPayload
	if err := json.Unmarshal(confirm, &pending); err != nil {
		t.Fatalf("decode confirm: %v", err)
	}
	if pending.Count != 1 || pending.Unanswered[0] != "q2" {
		t.Fatalf("unexpected confirm payload %+v", pending)
	}

	send(t, conn, "next", nil)
	readSession(t, conn, func(s app.Snapshot) bool { return s.CurrentIndex == 1 })
	send(t, conn, "answer", map[string]any{"questionId": "q2", "value": false})
	readSession(t, conn, func(s app.Snapshot) bool { return s.AnsweredCount == 2 })

	send(t, conn, "submit", map[string]any{"confirm": false})
	done := readSession(t, conn, func(s app.Snapshot) bool {
		return s.Phase == domain.PhaseCompleted && s.AttemptStatus == app.AttemptSaved
	})
	if done.Result == nil || done.Result.Percentage != 50 || done.Result.Passed {
		t.Fatalf("expected 50%% failed, got %+v", done.Result)
	}
	if done.Result.Questions[1].CorrectAnswerDisplay != "true" {
		t.Fatalf("expected correct answer display, got %+v", done.Result.Questions[1])
	}

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": "o1"})
	if msg := readError(t, conn); msg != "session is not running" {
		t.Fatalf("unexpected error %q", msg)
	}

	send(t, conn, "retry", nil)
	readSession(t, conn, func(s app.Snapshot) bool {
		return s.Phase == domain.PhaseRunning && s.AnsweredCount == 0 && s.Result == nil
	})

	list, err := attempts.ListAttempts(context.Background(), "quiz-1", "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one persisted attempt, got %d (%v)", len(list), err)
	}
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	server, _ := newTestServer(t, sampleQuizzes())

	cases := []struct {
		path   string
		status int
	}{
		{"/ws?quizId=quiz-1", http.StatusUnauthorized},
		{"/ws?userId=u1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, tc.path), nil)
		if err == nil {
			t.Fatalf("%s: expected dial failure", tc.path)
		}
		if resp == nil || resp.StatusCode != tc.status {
			t.Fatalf("%s: expected status %d, got %+v", tc.path, tc.status, resp)
		}
	}
}

func TestWebSocketReportsQuizErrorsAsFrames(t *testing.T) {
	broken := sampleQuizzes()
	q := broken["quiz-1"]
	q.ID = "broken"
	q.Questions = append([]domain.Question(nil), q.Questions...)
	q.Questions[0].Options = []domain.Option{{ID: "o1", Text: "3"}}
	broken["broken"] = q
	server, _ := newTestServer(t, broken)

	cases := []struct {
		path    string
		message string
	}{
		{"/ws?quizId=missing&userId=u1", "quiz not found"},
		{"/ws?quizId=broken&userId=u1", "quiz unavailable"},
	}
	for _, tc := range cases {
		conn := dial(t, server, tc.path)
		msg := readMessage(t, conn)
		if msg.Type != "error" {
			t.Fatalf("%s: expected error frame before any session, got %s", tc.path, msg.Type)
		}
		var payload errorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("%s: decode error: %v", tc.path, err)
		}
		if payload.Message != tc.message {
			t.Fatalf("%s: expected %q, got %q", tc.path, tc.message, payload.Message)
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Fatalf("%s: expected the socket to close after the error", tc.path)
		}
		conn.Close()
	}
}

func TestWebSocketUnknownMessage(t *testing.T) {
	server, _ := newTestServer(t, sampleQuizzes())
	conn := dial(t, server, "/ws?quizId=quiz-1&userId=u1")
	defer conn.Close()

	readSession(t, conn, func(s app.Snapshot) bool { return true })
	send(t, conn, "leaderboard", nil)
	if msg := readError(t, conn); msg != "unsupported message type" {
		t.Fatalf("unexpected error %q", msg)
	}
	send(t, conn, "answer", map[string]any{"questionId": "nope", "value": "x"})
	if msg := readError(t, conn); msg != "question not found" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func newTestServer(t *testing.T, quizzes map[string]domain.Quiz) (*httptest.Server, *memory.AttemptStore) {
	t.Helper()
	attempts := memory.NewAttemptStore()
	service := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewQuizRepository(memory.NewStaticQuizLoader(quizzes), time.Minute),
		attempts,
	)
	server := httptest.NewServer(NewRouter(RouterConfig{Service: service, Metrics: metrics.New()}))
	t.Cleanup(server.Close)
	return server, attempts
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, path), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	var msg rawMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

// readType skips session updates (timer ticks may interleave) until a message of the given type.
func readType(t *testing.T, conn *websocket.Conn, msgType string) json.RawMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type == msgType {
			return msg.Payload
		}
		if msg.Type != "session" {
			t.Fatalf("expected %s, got %s", msgType, msg.Type)
		}
	}
	t.Fatalf("no %s message received", msgType)
	return nil
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	var payload errorPayload
	if err := json.Unmarshal(readType(t, conn, "error"), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Message
}

func readSession(t *testing.T, conn *websocket.Conn, match func(app.Snapshot) bool) app.Snapshot {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type != "session" {
			t.Fatalf("expected session message, got %s: %s", msg.Type, msg.Payload)
		}
		var snap app.Snapshot
		if err := json.Unmarshal(msg.Payload, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if match(snap) {
			return snap
		}
	}
	t.Fatalf("no matching session snapshot")
	return app.Snapshot{}
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			Title:            "Basics",
			TimeLimitMinutes: 1,
			PassingScore:     70,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Type: domain.QuestionMultipleChoice,
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", IsCorrect: true},
						{ID: "o3", Text: "5"},
					},
					Points: 1,
				},
				{
					ID:            "q2",
					Type:          domain.QuestionTrueFalse,
					Text:          "Go has generics",
					CorrectAnswer: "true",
					Points:        1,
				},
			},
		},
	}
}
