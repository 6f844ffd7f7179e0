package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoCachesSuccess(t *testing.T) {
	var m Memo[int]
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		v, err := m.Get(context.Background(), fetch)
		if err != nil || v != 7 {
			t.Fatalf("Get = %d, %v; want 7, nil", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestMemoRetriesAfterError(t *testing.T) {
	var m Memo[string]
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("first call fails")
		}
		return "ok", nil
	}

	if _, err := m.Get(context.Background(), fetch); err == nil {
		t.Fatal("first Get returned nil error")
	}
	v, err := m.Get(context.Background(), fetch)
	if err != nil || v != "ok" {
		t.Errorf("second Get = %q, %v; want ok, nil", v, err)
	}
}

func TestMemoConcurrent(t *testing.T) {
	var m Memo[int]
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Get(context.Background(), func(context.Context) (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return 1, nil
			})
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}
