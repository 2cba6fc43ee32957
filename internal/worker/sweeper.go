package worker

import (
	"context" // Request-scoped cancellation
	"sync"    // Mutex
	"time"    // Time handling

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// HoldExpirer releases lapsed booking holds
type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (int64, error)
}

// Sweeper periodically releases lapsed holds in the background
type Sweeper struct {
	expirer  HoldExpirer
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSweeper builds a Sweeper running every interval
func NewSweeper(expirer HoldExpirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop; it runs until ctx is cancelled or Stop is called
func (s *Sweeper) Start(ctx context.Context) {
	logrus.WithField("interval", s.interval.String()).Info("Starting hold sweeper")
	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight sweep to finish
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			logrus.Info("Hold sweeper stopped")
			return
		case <-ctx.Done():
			logrus.Info("Hold sweeper cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireHolds(ctx)
	if err != nil {
		logrus.WithError(err).Error("Hold sweep failed")
		return
	}
	if n > 0 {
		logrus.WithField("released", n).Info("Released lapsed holds")
	}
}
