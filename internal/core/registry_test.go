package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_PutGet(t *testing.T) {
	r := NewRegistry()

	if err := r.Put(Dataset{ID: "a", Name: "first"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "first" {
		t.Errorf("Name = %q, want first", got.Name)
	}

	if err := r.Put(Dataset{ID: "a", Name: "again"}); err == nil {
		t.Error("expected duplicate Put to fail")
	}
	if got, _ := r.Get("a"); got.Name != "first" {
		t.Errorf("duplicate Put replaced the dataset: %q", got.Name)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := NewRegistry().Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ListKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		if err := r.Put(Dataset{ID: id}); err != nil {
			t.Fatalf("Put(%s) failed: %v", id, err)
		}
	}

	list := r.List()
	if len(list) != 3 || r.Len() != 3 {
		t.Fatalf("List has %d entries, Len = %d, want 3", len(list), r.Len())
	}
	for i, want := range []string{"c", "a", "b"} {
		if list[i].ID != want {
			t.Errorf("List[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestRegistry_ConcurrentPut(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Put(Dataset{ID: fmt.Sprint(i)})
			_ = r.List()
		}(i)
	}
	wg.Wait()

	if got := r.Len(); got != 50 {
		t.Errorf("Len = %d, want 50", got)
	}
}
