package automod

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Ledger tracks warning counts per user, durable when the database
// cooperates. When it stops cooperating the ledger degrades to an
// in-memory map for the rest of the process lifetime; the transition is
// one-way and logged once. Callers never see a storage error.
type Ledger struct {
	db *sqlx.DB

	mu       sync.Mutex
	degraded bool
	mem      map[string]int
}

func NewLedger(db *sqlx.DB) *Ledger {
	l := &Ledger{
		db:  db,
		mem: map[string]int{},
	}
	if _, err := db.Exec(`create table if not exists warnings (
			user_id string primary key,
			warning_count integer not null default 0,
			last_warning timestamp
		);`); err != nil {
		l.degrade(err)
	}
	return l
}

func (l *Ledger) Get(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(userID)
}

// Increment adds one warning and returns the new count. The whole
// read-modify-write happens under the ledger lock so two overlapping
// violations by the same user cannot lose an update.
func (l *Ledger) Increment(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.get(userID) + 1
	if !l.degraded {
		err := l.retry(func() error {
			_, err := l.db.Exec(`insert into warnings (user_id, warning_count, last_warning)
				values (?, ?, ?)
				on conflict(user_id) do update set warning_count=?, last_warning=?`,
				userID, n, time.Now(), n, time.Now())
			return err
		})
		if err == nil {
			return n
		}
		l.degrade(err)
	}
	l.mem[userID] = n
	return n
}

func (l *Ledger) Reset(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.degraded {
		err := l.retry(func() error {
			_, err := l.db.Exec(`update warnings set warning_count=0 where user_id=?`, userID)
			return err
		})
		if err == nil {
			delete(l.mem, userID)
			return
		}
		l.degrade(err)
	}
	delete(l.mem, userID)
}

// get must be called with the lock held
func (l *Ledger) get(userID string) int {
	if l.degraded {
		return l.mem[userID]
	}
	var count int
	err := l.db.Get(&count, `select warning_count from warnings where user_id=?`, userID)
	if err == nil {
		return count
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0
	}
	l.degrade(err)
	return l.mem[userID]
}

func (l *Ledger) retry(op func() error) error {
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(50*time.Millisecond),
		backoff.WithMaxElapsedTime(2*time.Second),
	), 3)
	return backoff.Retry(op, bo)
}

// degrade flips the ledger to memory-only. Counts read before the
// failure carry over via the callers, fresh users start at zero.
func (l *Ledger) degrade(err error) {
	if l.degraded {
		return
	}
	l.degraded = true
	log.Error().Err(err).Msg("warning storage unavailable, tracking warnings in memory for the rest of this run")
}

// Degraded reports whether durability has been lost
func (l *Ledger) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}
