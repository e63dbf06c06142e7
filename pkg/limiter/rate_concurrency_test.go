package limiter_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/wiki-crawler/pkg/limiter"
)

// Run with -race to catch unsynchronized access:
//
//	go test -race ./pkg/limiter -run TestConcurrentAccessRateLimiter
func TestConcurrentAccessRateLimiter(t *testing.T) {
	rl := limiter.NewConcurrentRateLimiter()
	rl.SetBaseDelay(time.Millisecond)
	rl.SetJitter(time.Millisecond)
	rl.SetRandomSeed(42)
	rl.SetSleeper(func(ctx context.Context, d time.Duration) error { return nil })

	hosts := []string{"en.wikipedia.org", "zh.wikipedia.org", "ms.wikipedia.org"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(id)))
			for j := 0; j < 300; j++ {
				host := hosts[r.Intn(len(hosts))]
				switch r.Intn(7) {
				case 0:
					rl.SetBaseDelay(time.Duration(r.Intn(5)) * time.Millisecond)
				case 1:
					rl.Backoff(host)
				case 2:
					rl.ResetBackoff(host)
				case 3:
					rl.MarkLastFetchAsNow(host)
				case 4:
					_ = rl.ResolveDelay(host)
				case 5:
					_ = rl.Wait(context.Background(), host)
				case 6:
					_ = rl.HostTimings()
				}
			}
		}(i)
	}
	wg.Wait()

	if rl.HostTimings() == nil {
		t.Fatal("HostTimings returned nil")
	}
}
