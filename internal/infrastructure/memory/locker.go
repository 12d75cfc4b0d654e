package memory

import (
	"context"
	"sync"
	"time"

	"bid-coordinator/internal/domain"
)

// Locker is the in-heap auction lock table.
type Locker struct {
	mu    sync.Mutex
	locks map[string]domain.AuctionLock
	now   func() time.Time
}

func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]domain.AuctionLock),
		now:   time.Now,
	}
}

func (l *Locker) SetClock(now func() time.Time) {
	l.now = now
}

// Lock takes the auction lock. It reports false if the lock is already held.
func (l *Locker) Lock(ctx context.Context, auctionID, reason string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locks[auctionID]; held {
		return false, nil
	}
	l.locks[auctionID] = domain.AuctionLock{Reason: reason, Timestamp: l.now()}
	return true, nil
}

func (l *Locker) Unlock(ctx context.Context, auctionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, auctionID)
	return nil
}

func (l *Locker) IsLocked(ctx context.Context, auctionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, held := l.locks[auctionID]
	return held, nil
}

func (l *Locker) SweepOlderThan(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, lock := range l.locks {
		if lock.Timestamp.Before(cutoff) {
			delete(l.locks, id)
			removed++
		}
	}
	return removed
}
