package blacklist

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// ErrEmptyWord is returned for add/remove calls with nothing left after
// normalization.
var ErrEmptyWord = errors.New("empty word")

// Store owns the banned vocabulary. It is the single source of truth;
// consumers hold their own compiled derivatives and resynchronize
// through Subscribe.
type Store struct {
	db *sqlx.DB

	mu    sync.RWMutex
	words map[string]bool

	subMu sync.Mutex
	subs  []chan []string
}

func NewStore(db *sqlx.DB) *Store {
	s := &Store{
		db:    db,
		words: map[string]bool{},
	}
	if _, err := db.Exec(`create table if not exists blacklist (
			word string primary key
		);`); err != nil {
		log.Fatal().Err(err).Msg("could not create blacklist table")
	}
	s.load()
	return s
}

// Normalize lower-cases and trims a word the way the store keys it
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// load replaces the in-memory set with whatever is persisted. A missing
// or unreadable store is an empty list, not an error.
func (s *Store) load() {
	var words []string
	if err := s.db.Select(&words, `select word from blacklist`); err != nil {
		log.Error().Err(err).Msg("could not load blacklist, starting empty")
		words = nil
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = Normalize(w)
		if w == "" {
			continue
		}
		set[w] = true
	}
	s.mu.Lock()
	s.words = set
	s.mu.Unlock()
}

// save overwrites the persisted set wholesale inside one transaction so
// a failed write never leaves a partial list behind.
func (s *Store) save(set map[string]bool) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`delete from blacklist`); err != nil {
		tx.Rollback()
		return err
	}
	for w := range set {
		if _, err := tx.Exec(`insert into blacklist (word) values (?)`, w); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Add puts a normalized word into the set. It reports whether the set
// changed; duplicates are a no-op and trigger neither persistence nor
// broadcast.
func (s *Store) Add(word string) (bool, error) {
	w := Normalize(word)
	if w == "" {
		return false, ErrEmptyWord
	}

	s.mu.Lock()
	if s.words[w] {
		s.mu.Unlock()
		return false, nil
	}
	next := make(map[string]bool, len(s.words)+1)
	for k := range s.words {
		next[k] = true
	}
	next[w] = true
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.words = next
	s.mu.Unlock()

	s.broadcast()
	return true, nil
}

// Remove deletes a word from the set, with the same applied/no-op
// contract as Add.
func (s *Store) Remove(word string) (bool, error) {
	w := Normalize(word)
	if w == "" {
		return false, ErrEmptyWord
	}

	s.mu.Lock()
	if !s.words[w] {
		s.mu.Unlock()
		return false, nil
	}
	next := make(map[string]bool, len(s.words))
	for k := range s.words {
		if k != w {
			next[k] = true
		}
	}
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.words = next
	s.mu.Unlock()

	s.broadcast()
	return true, nil
}

func (s *Store) Contains(word string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.words[Normalize(word)]
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// Words returns a sorted copy of the current set
func (s *Store) Words() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Reload re-reads the persisted set and notifies subscribers
func (s *Store) Reload() []string {
	s.load()
	s.broadcast()
	return s.Words()
}

// Subscribe returns a channel that receives a snapshot of the word list
// after every committed change. Delivery is latest-wins: a subscriber
// that has not drained yet only sees the newest snapshot, and a slow
// subscriber never blocks the store or its peers.
func (s *Store) Subscribe() <-chan []string {
	ch := make(chan []string, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) broadcast() {
	snapshot := s.Words()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// stale snapshot pending; replace it
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
