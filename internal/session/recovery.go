package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

// RecoveryTTL bounds how long a mirrored cart can be restored
const RecoveryTTL = time.Hour

// Recovery is the secondary cart store keyed by "user:chat"
type Recovery interface {
	Get(ctx context.Context, key string) ([]models.CartItem, bool, error)
	Put(ctx context.Context, key string, cart []models.CartItem) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	cart    []models.CartItem
	savedAt time.Time
}

// MemoryRecovery is a process-local Recovery. Expired entries are ignored on
// read and removed by Sweep.
type MemoryRecovery struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	logger  *logrus.Logger
}

// NewMemoryRecovery creates a memory recovery store. A zero ttl means
// RecoveryTTL; a nil now means time.Now.
func NewMemoryRecovery(ttl time.Duration, now func() time.Time, logger *logrus.Logger) *MemoryRecovery {
	if ttl <= 0 {
		ttl = RecoveryTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryRecovery{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]memoryEntry),
		logger:  logger,
	}
}

func (m *MemoryRecovery) Get(ctx context.Context, key string) ([]models.CartItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.savedAt) >= m.ttl {
		delete(m.entries, key)
		return nil, false, nil
	}
	return copyCart(e.cart), true, nil
}

func (m *MemoryRecovery) Put(ctx context.Context, key string, cart []models.CartItem) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{cart: copyCart(cart), savedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *MemoryRecovery) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired entries and returns how many were removed
func (m *MemoryRecovery) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.savedAt) >= m.ttl {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (m *MemoryRecovery) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debugf("Swept %d expired carts", n)
			}
		}
	}
}

// Len returns the number of entries, expired ones included
func (m *MemoryRecovery) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func copyCart(cart []models.CartItem) []models.CartItem {
	if cart == nil {
		return nil
	}
	out := make([]models.CartItem, len(cart))
	copy(out, cart)
	return out
}

var _ Recovery = (*MemoryRecovery)(nil)
