package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

func TestPool_DefaultSize(t *testing.T) {
	if NewPool(0).Size() != 5 {
		t.Fatalf("expected default size 5")
	}
	if NewPool(-3).Size() != 5 {
		t.Fatalf("expected default size for negative input")
	}
	if NewPool(2).Size() != 2 {
		t.Fatalf("expected explicit size kept")
	}
}

func TestPool_ProcessesEveryCompany(t *testing.T) {
	companies := make([]entity.Company, 20)
	var processed atomic.Int64

	NewPool(4).Process(context.Background(), companies, func(context.Context, entity.Company) {
		processed.Add(1)
	})

	if processed.Load() != 20 {
		t.Fatalf("expected 20 runs, got %d", processed.Load())
	}
}

func TestPool_ConcurrencyBound(t *testing.T) {
	const bound = 3
	companies := make([]entity.Company, 12)

	var mu sync.Mutex
	inFlight, peak := 0, 0

	NewPool(bound).Process(context.Background(), companies, func(context.Context, entity.Company) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	if peak > bound {
		t.Fatalf("expected at most %d concurrent runs, observed %d", bound, peak)
	}
	if peak == 0 {
		t.Fatalf("expected runs to execute")
	}
}

func TestPool_CancelStopsAdmissions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	companies := make([]entity.Company, 50)

	var processed atomic.Int64
	NewPool(1).Process(ctx, companies, func(context.Context, entity.Company) {
		if processed.Add(1) == 2 {
			cancel()
		}
		time.Sleep(time.Millisecond)
	})

	if processed.Load() >= 50 {
		t.Fatalf("expected cancellation to skip remaining companies")
	}
}
