package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/five82/atmbitbit/internal/lnbits"
)

// Lister fetches the resource list. *lnbits.Client implements it.
type Lister interface {
	ListAtmBitBits(ctx context.Context, adminKey string, allWallets bool) ([]lnbits.AtmBitBit, error)
}

// Status describes the outcome of the most recent refresh.
type Status struct {
	Loaded              bool // at least one refresh succeeded
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Store owns the local AtmBitBit collection.
type Store struct {
	lister  Lister
	session Session

	mu      sync.RWMutex
	records []Record // insertion order; ids are unique
	status  Status
}

var errNoWallets = errors.New("no wallet with an admin key configured")

// NewStore creates an empty store that refreshes through lister using the
// session's primary wallet.
func NewStore(lister Lister, session Session) *Store {
	return &Store{lister: lister, session: session}
}

// Session returns the wallets the store was created with.
func (s *Store) Session() Session {
	return s.session
}

// Refresh lists every resource visible to the operator's wallets and replaces
// the collection with the result. On failure the collection is left as is.
func (s *Store) Refresh(ctx context.Context) error {
	wallet, ok := s.session.Primary()
	if !ok {
		return s.fail(NewError(KindFetch, "refresh", "", errNoWallets))
	}
	if s.lister == nil {
		return s.fail(NewError(KindFetch, "refresh", "", fmt.Errorf("store has no lister")))
	}

	items, err := s.lister.ListAtmBitBits(ctx, wallet.AdminKey, true)
	if err != nil {
		return s.fail(NewError(KindFetch, "refresh", "", err))
	}

	records := make([]Record, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		rec := NewRecord(FieldsFromAPI(item))
		if i, dup := index[rec.ID()]; dup {
			records[i] = rec
			continue
		}
		index[rec.ID()] = len(records)
		records = append(records, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.status = Status{Loaded: true, LastUpdated: time.Now()}
	return nil
}

func (s *Store) fail(err *Error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastError = err
	s.status.LastUpdated = time.Now()
	s.status.ConsecutiveFailures++
	return err
}

// ApplyCreated inserts a server-confirmed record. A record with the same id
// already present is a consistency fault.
func (s *Store) ApplyCreated(f Fields) error {
	if f.ID == "" {
		return NewError(KindConsistency, "apply created", "", errors.New("record has no id"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(f.ID) >= 0 {
		return NewError(KindConsistency, "apply created", f.ID, errors.New("record already present"))
	}
	s.records = append(s.records, NewRecord(f))
	return nil
}

// ApplyUpdated replaces the record with the same id by f. Local fields are
// discarded in favour of the server representation.
func (s *Store) ApplyUpdated(f Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(f.ID)
	s.records = append(s.records, NewRecord(f))
}

// ApplyDeleted removes the record with id. Missing ids are ignored.
func (s *Store) ApplyDeleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i].clone(), true
	}
	return Record{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// snapshot returns copies of the records in insertion order.
func (s *Store) snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// SortedView returns copies of the records ordered by API key id, compared
// case-insensitively. Equal keys fall back to the record id so the order is
// fully determined by the collection's contents.
func (s *Store) SortedView() []Record {
	s.mu.RLock()
	view := cloneRecords(s.records)
	s.mu.RUnlock()

	sort.SliceStable(view, func(i, j int) bool {
		a := strings.ToLower(view[i].live.APIKeyID)
		b := strings.ToLower(view[j].live.APIKeyID)
		if a != b {
			return a < b
		}
		return view[i].live.ID < view[j].live.ID
	})
	return view
}

// Status returns the bookkeeping of the last refresh.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].live.ID == id {
			return i
		}
	}
	return -1
}

// removeLocked must be called with s.mu held for writing.
func (s *Store) removeLocked(id string) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
}

func cloneRecords(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]Record, len(records))
	for i := range records {
		dup[i] = records[i].clone()
	}
	return dup
}
