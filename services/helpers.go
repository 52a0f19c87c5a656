package services

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// withTx runs fn inside a transaction. It rolls back when fn returns an error
// or panics and commits otherwise.
func withTx(ctx context.Context, db *sql.DB, logger logrus.FieldLogger, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			logger.WithError(txErr).Debug("rolling back transaction")
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.WithError(rbErr).Error("rollback failed")
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}

// RandSource hands out independent generators derived from one seed, so a
// seeded run resolves every match the same way no matter which worker picks
// it up.
type RandSource struct {
	seed int64
}

// NewRandSource returns a source for seed. A zero seed is replaced with the
// wall clock.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{seed: seed}
}

func (s *RandSource) Seed() int64 {
	return s.seed
}

// For returns a generator for the given key parts.
func (s *RandSource) For(parts ...interface{}) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", s.seed)
	for _, p := range parts {
		fmt.Fprintf(h, "|%v", p)
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Realtime message types.
const (
	MessageDayAdvanced = "DAY_ADVANCED"
	MessageMatchPlayed = "MATCH_PLAYED"
	MessageSeasonEnded = "SEASON_ENDED"
)

type Notification struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Notifier delivers messages to websocket clients subscribed to a room.
type Notifier interface {
	BroadcastToRoom(room string, message interface{})
}

type noopNotifier struct{}

func (noopNotifier) BroadcastToRoom(string, interface{}) {}

// SaveRoom is the realtime room of one save.
func SaveRoom(saveID uuid.UUID) string {
	return "save:" + saveID.String()
}

// SaveLocks keeps one mutex per save so two day advances or a day advance
// and a season transition never overlap.
type SaveLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewSaveLocks() *SaveLocks {
	return &SaveLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *SaveLocks) TryLock(saveID uuid.UUID) (unlock func(), ok bool) {
	l.mu.Lock()
	m, found := l.locks[saveID]
	if !found {
		m = &sync.Mutex{}
		l.locks[saveID] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}
