package session

import (
	"sync"
	"testing"

	ai "kvrdesk/services/intelligence"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	agent := ai.NewAgent(nil, nil, "system", nil)

	s := r.Open(agent)
	if s.ID == "" || r.Count() != 1 {
		t.Fatalf("open: id=%q count=%d", s.ID, r.Count())
	}
	got, ok := r.Get(s.ID)
	if !ok || got.Agent != agent {
		t.Fatal("session not found")
	}

	r.Close(s.ID)
	r.Close(s.ID)
	if _, ok := r.Get(s.ID); ok || r.Count() != 0 {
		t.Fatal("session still registered")
	}
}

func TestRegistryConcurrentSessions(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- r.Open(ai.NewAgent(nil, nil, "system", nil)).ID
		}()
	}
	wg.Wait()
	close(ids)

	if r.Count() != 50 {
		t.Fatalf("count = %d, want 50", r.Count())
	}
	for id := range ids {
		r.Close(id)
	}
	if r.Count() != 0 {
		t.Fatalf("count after close = %d", r.Count())
	}
}
