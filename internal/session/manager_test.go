package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(nil, nil)

	id, err := m.Create("alpha", smallConfig())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != "alpha" {
		t.Errorf("Expected ID 'alpha', got %q", id)
	}
	if _, err := m.Create("alpha", smallConfig()); err == nil {
		t.Error("Expected error for duplicate ID")
	}

	s, ok := m.Get("alpha")
	if !ok || s.ID() != "alpha" {
		t.Fatal("Expected session to be found")
	}

	s.Run(5 * time.Millisecond)
	if err := m.Delete("alpha"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.IsRunning() {
		t.Error("Expected deleted session to be stopped")
	}
	if _, ok := m.Get("alpha"); ok {
		t.Error("Expected session removed")
	}
	if err := m.Delete("alpha"); err == nil {
		t.Error("Expected error deleting unknown session")
	}
}

func TestManager_GeneratesIDs(t *testing.T) {
	m := NewManager(nil, nil)

	id, err := m.Create("", smallConfig())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		t.Errorf("Expected a UUID, got %q", id)
	}
}

func TestManager_List(t *testing.T) {
	m := NewManager(nil, nil)
	for _, id := range []ID{"c", "a", "b"} {
		if _, err := m.Create(id, smallConfig()); err != nil {
			t.Fatalf("Create(%s) failed: %v", id, err)
		}
	}

	ids := m.List()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("Expected sorted IDs, got %v", ids)
	}
}

func TestManager_InvalidConfig(t *testing.T) {
	m := NewManager(nil, nil)
	cfg := smallConfig()
	cfg.Recipe.Yeast = 5
	if _, err := m.Create("bad", cfg); err == nil {
		t.Error("Expected error for invalid recipe")
	}
	if len(m.List()) != 0 {
		t.Error("Expected no session registered")
	}
}

func TestManager_SessionsPublish(t *testing.T) {
	nm := NewNotificationManager(nil)
	defer nm.Close()
	obs := &mockNotifier{id: "obs"}
	nm.RegisterNotifier(obs, EventIngredient)

	m := NewManager(nm, nil)
	id, _ := m.Create("", smallConfig())
	s, _ := m.Get(id)
	s.AddYeast()

	waitFor(t, func() bool { return len(obs.received()) == 1 })
	if obs.received()[0].SessionID != id {
		t.Errorf("Expected event from %s, got %s", id, obs.received()[0].SessionID)
	}

	m.StopAll()
}
