package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/sequence"
)

// MemoryStore keeps users in process. Its identity generator behaves like a
// database sequence: every insert attempt consumes a value, and Backfill
// writes explicit ids without advancing it.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	emails map[string]int64
	nextID int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]models.User),
		emails: make(map[string]int64),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryStore) Insert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	if _, taken := s.users[id]; taken {
		return fmt.Errorf("%w: id %d already exists", sequence.ErrIdentityConflict, id)
	}
	if _, taken := s.emails[u.Email]; taken {
		return ErrDuplicateEmail
	}

	now := s.now().UTC()
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[id] = *u
	s.emails[u.Email] = id
	return nil
}

// Backfill stores u with its own ID, bypassing the identity generator. A zero
// CreatedAt is kept as is.
func (s *MemoryStore) Backfill(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID <= 0 {
		return fmt.Errorf("backfill requires an explicit id")
	}
	if _, taken := s.users[u.ID]; taken {
		return fmt.Errorf("%w: id %d already exists", sequence.ErrIdentityConflict, u.ID)
	}
	if _, taken := s.emails[u.Email]; taken {
		return ErrDuplicateEmail
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *MemoryStore) Update(_ context.Context, id int64, changes Changes) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if changes.IsEmpty() {
		return &u, nil
	}
	if changes.Email != nil && *changes.Email != u.Email {
		if _, taken := s.emails[*changes.Email]; taken {
			return nil, ErrDuplicateEmail
		}
		delete(s.emails, u.Email)
		s.emails[*changes.Email] = id
	}
	changes.apply(&u)
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	delete(s.emails, u.Email)
	return nil
}

func (s *MemoryStore) List(_ context.Context, q query.ListQuery) ([]models.User, int64, error) {
	s.mu.RLock()
	matched := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if matches(q.Filter, &u) {
			matched = append(matched, u)
		}
	}
	s.mu.RUnlock()

	sortUsers(matched, q.Sort)

	total := int64(len(matched))
	start := q.Page.Offset
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Page.Limit > 0 && q.Page.Limit < end-start {
		end = start + q.Page.Limit
	}
	page := make([]models.User, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) MaxID(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var maxID int64
	for id := range s.users {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (s *MemoryStore) AdvanceSequence(_ context.Context, next int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next > s.nextID {
		s.nextID = next
	}
	return s.nextID, nil
}

func (s *MemoryStore) CountByGender(context.Context) ([]analytics.GenderCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, u := range s.users {
		counts[u.Gender]++
	}
	out := make([]analytics.GenderCount, 0, len(counts))
	for g, c := range counts {
		out = append(out, analytics.GenderCount{Gender: g, Count: c})
	}
	return out, nil
}

func (s *MemoryStore) CreationTimes(context.Context) ([]analytics.CreationStamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]analytics.CreationStamp, 0, len(s.users))
	for id, u := range s.users {
		stamp := analytics.CreationStamp{ID: id}
		if !u.CreatedAt.IsZero() {
			stamp.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		out = append(out, stamp)
	}
	return out, nil
}

func (s *MemoryStore) Emails(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Email)
	}
	return out, nil
}

func matches(p query.Predicate, u *models.User) bool {
	switch v := p.(type) {
	case nil, query.MatchAll:
		return true
	case query.And:
		for _, child := range v {
			if !matches(child, u) {
				return false
			}
		}
		return true
	case query.Or:
		for _, child := range v {
			if matches(child, u) {
				return true
			}
		}
		return false
	case query.Equals:
		return fieldValue(u, v.Field) == v.Value
	case query.Contains:
		return strings.Contains(strings.ToLower(fieldValue(u, v.Field)), strings.ToLower(v.Term))
	}
	return false
}

func fieldValue(u *models.User, f query.Field) string {
	switch f {
	case query.FieldFirstName:
		return u.FirstName
	case query.FieldLastName:
		return u.LastName
	case query.FieldEmail:
		return u.Email
	case query.FieldGender:
		return u.Gender
	case query.FieldPhone:
		return u.Phone
	}
	return ""
}

func sortUsers(users []models.User, s query.Sort) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := &users[i], &users[j]
		if s.Field != query.FieldID {
			av, bv := fieldValue(a, s.Field), fieldValue(b, s.Field)
			if av != bv {
				if s.IsDesc() {
					return av > bv
				}
				return av < bv
			}
			return a.ID < b.ID
		}
		if s.IsDesc() {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}
