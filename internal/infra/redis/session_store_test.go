package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"quiz-engine/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute, nil)

	session := app.NewSession("s1", sampleQuiz(), "u1", nil)
	defer session.Close()
	store.Add(session)
	if got, err := mr.Get("quiz:session:s1"); err != nil || got != "quiz-1" {
		t.Fatalf("expected liveness key holding quiz id, got %q (%v)", got, err)
	}
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Fatalf("expected session present")
	}

	if !store.Remove("s1") {
		t.Fatalf("expected remove to report presence")
	}
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if store.Remove("s1") {
		t.Fatalf("expected second remove to report absence")
	}
}

func TestSessionStoreSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	store := NewSessionStore(client, time.Minute, nil)
	mr.Close()

	session := app.NewSession("s1", sampleQuiz(), "u1", nil)
	defer session.Close()
	store.Add(session)
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session tracked locally despite redis outage")
	}
	if !store.Remove("s1") {
		t.Fatalf("expected remove to succeed")
	}
}

func TestSessionStoreMarkerOutlivesLongQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute, nil)
	quiz := sampleQuiz()
	quiz.TimeLimitMinutes = 30
	session := app.NewSession("s1", quiz, "u1", nil)
	defer session.Close()
	store.Add(session)

	if got := mr.TTL("quiz:session:s1"); got != 31*time.Minute {
		t.Fatalf("expected marker ttl to cover the 30m budget plus grace, got %v", got)
	}
	mr.FastForward(29 * time.Minute)
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("marker expired while the quiz clock was still running")
	}
}

func TestSessionStoreRefreshesMarker(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), 100*time.Millisecond, nil)
	session := app.NewSession("s1", sampleQuiz(), "u1", nil)
	defer session.Close()
	store.Add(session)

	mr.FastForward(59 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for mr.TTL("quiz:session:s1") < 30*time.Second {
		if time.Now().After(deadline) {
			t.Fatalf("expected marker refreshed, ttl is %v", mr.TTL("quiz:session:s1"))
		}
		time.Sleep(10 * time.Millisecond)
	}

	store.Remove("s1")
	time.Sleep(200 * time.Millisecond)
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected refresh to stop once the session is removed")
	}
}
