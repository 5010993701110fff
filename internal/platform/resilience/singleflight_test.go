package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, _ := g.Do("fpl-bootstrap", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_ErrorPropagates(t *testing.T) {
	var g SingleFlight
	wantErr := errors.New("upstream unavailable")

	_, err, _ := g.Do("fixtures:gw10", func() (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	// A later call with the same key must run fresh, not replay the error.
	got, err, _ := g.Do("fixtures:gw10", func() (any, error) {
		return 9, nil
	})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if got != 9 {
		t.Fatalf("expected fresh result, got %v", got)
	}
}
