package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dpup/prefab/logging"
)

// PeriodicRefreshService reprocesses monitored areas on a fixed interval so
// area requests are served from cache
type PeriodicRefreshService struct {
	areas    *AreasService
	interval time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewPeriodicRefreshService creates a new periodic refresh service
func NewPeriodicRefreshService(areas *AreasService, interval time.Duration) *PeriodicRefreshService {
	return &PeriodicRefreshService{
		areas:    areas,
		interval: interval,
	}
}

// StartPeriodicRefresh refreshes every area now and then once per interval
func (p *PeriodicRefreshService) StartPeriodicRefresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})

	log.Printf("Starting periodic area refresh every %v", p.interval)
	go p.refreshLoop(logging.EnsureLogger(ctx), p.stopChan)

	return nil
}

// Stop gracefully stops the periodic refresh
func (p *PeriodicRefreshService) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
	log.Printf("Stopped periodic refresh service")
}

// IsRunning returns whether periodic refresh is active
func (p *PeriodicRefreshService) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PeriodicRefreshService) refreshLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Periodic refresh stopping due to context cancellation")
			return
		case <-stop:
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *PeriodicRefreshService) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := p.areas.RefreshAll(refreshCtx); err != nil {
		log.Printf("Periodic refresh failed: %v", err)
	}
}
