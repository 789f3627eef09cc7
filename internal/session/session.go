// Package session keeps the per-conversation state of the bot. The primary
// state lives in process memory; carts are mirrored into a recovery store so
// they survive a loss of the primary state for a bounded time.
package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

// State is the position of a conversation in the ordering flow
type State string

const (
	StateIdle                State = "idle"
	StateViewingMenu         State = "viewing_menu"
	StateSelectingQuantity   State = "selecting_quantity"
	StateReviewingCart       State = "reviewing_cart"
	StateWaitingConfirmation State = "waiting_confirmation"
)

// Key identifies a conversation
type Key struct {
	UserID int64
	ChatID int64
}

// String returns "user:chat", the recovery store key
func (k Key) String() string {
	return strconv.FormatInt(k.UserID, 10) + ":" + strconv.FormatInt(k.ChatID, 10)
}

func (k Key) complete() bool {
	return k.UserID != 0 && k.ChatID != 0
}

// Session is the state of one conversation
type Session struct {
	Key   Key
	State State
	Cart  []models.CartItem

	// Pending is the dish waiting for a quantity.
	Pending *models.Dish

	// ConfirmationID is issued when the cart is confirmed and consumed by
	// the submission, so a repeated finalize cannot submit twice.
	ConfirmationID string
}

func (s Session) clone() Session {
	out := s
	if s.Cart != nil {
		out.Cart = make([]models.CartItem, len(s.Cart))
		copy(out.Cart, s.Cart)
	}
	if s.Pending != nil {
		dish := *s.Pending
		out.Pending = &dish
	}
	return out
}

// PrimaryIdleTTL is how long an untouched conversation stays in primary
// state. Its cart survives eviction in the recovery store until RecoveryTTL.
const PrimaryIdleTTL = 24 * time.Hour

type primaryEntry struct {
	sess     Session
	lastSeen time.Time
}

// Store holds the primary state of every conversation
type Store struct {
	mu       sync.Mutex
	primary  map[Key]primaryEntry
	recovery Recovery
	idleTTL  time.Duration
	now      func() time.Time
	logger   *logrus.Logger
}

// NewStore creates a session store backed by recovery
func NewStore(recovery Recovery, logger *logrus.Logger) *Store {
	return &Store{
		primary:  make(map[Key]primaryEntry),
		recovery: recovery,
		idleTTL:  PrimaryIdleTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Load returns the session for key. When the primary cart is empty, a cart
// still held by the recovery store is restored into the primary state.
func (s *Store) Load(ctx context.Context, key Key) Session {
	s.mu.Lock()
	entry, ok := s.primary[key]
	s.mu.Unlock()

	sess := entry.sess
	if !ok {
		sess = Session{Key: key, State: StateIdle}
	}
	if len(sess.Cart) > 0 || !key.complete() {
		return sess.clone()
	}

	cart, found, err := s.recovery.Get(ctx, key.String())
	if err != nil {
		s.logger.WithField("session", key.String()).WithError(err).Warn("Failed to read recovery store")
		return sess.clone()
	}
	if !found || len(cart) == 0 {
		return sess.clone()
	}

	s.logger.WithField("session", key.String()).Infof("Restored cart with %d items", len(cart))
	sess.Cart = cart
	s.put(sess)
	return sess.clone()
}

// Save stores the session and mirrors its cart into the recovery store. An
// empty cart removes the recovery entry so a cleared cart stays cleared.
func (s *Store) Save(ctx context.Context, sess Session) {
	s.put(sess)

	if !sess.Key.complete() {
		return
	}

	var err error
	if len(sess.Cart) == 0 {
		err = s.recovery.Delete(ctx, sess.Key.String())
	} else {
		err = s.recovery.Put(ctx, sess.Key.String(), sess.Cart)
	}
	if err != nil {
		s.logger.WithField("session", sess.Key.String()).WithError(err).Warn("Failed to mirror cart")
	}
}

func (s *Store) put(sess Session) {
	s.mu.Lock()
	s.primary[sess.Key] = primaryEntry{sess: sess.clone(), lastSeen: s.now()}
	s.mu.Unlock()
}

// Reset drops the primary state of a conversation. The recovery entry is
// kept.
func (s *Store) Reset(key Key) {
	s.mu.Lock()
	delete(s.primary, key)
	s.mu.Unlock()
}

// Sweep evicts conversations untouched for the idle TTL and returns how many
// were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.primary {
		if now.Sub(entry.lastSeen) >= s.idleTTL {
			delete(s.primary, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle conversations every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debugf("Evicted %d idle conversations", n)
			}
		}
	}
}

// Len returns the number of conversations held in primary state
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.primary)
}
