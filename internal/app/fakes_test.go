package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"gophercalc/internal/model"
	"gophercalc/internal/repository"
)

// fakeUserStore keeps users in memory and enforces the same uniqueness
// the MySQL indexes do. raceUser, when set, is inserted behind the
// caller's back on the next Create to simulate losing the
// check-then-insert race.
type fakeUserStore struct {
	mu       sync.Mutex
	users    map[uint]*model.User
	nextID   uint
	raceUser *model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.raceUser != nil {
		ru := *f.raceUser
		f.nextID++
		ru.ID = f.nextID
		f.users[ru.ID] = &ru
		f.raceUser = nil
		return repository.ErrDuplicateEntry
	}

	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateEntry
		}
	}

	f.nextID++
	user.ID = f.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == identifier || u.Email == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserStore) List(_ context.Context, offset, limit int) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeUserStore) Update(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return repository.ErrDuplicateEntry
		}
	}
	user.UpdatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, user.ID)
	return nil
}

// setActive flips the stored flag directly, bypassing the service.
func (f *fakeUserStore) setActive(id uint, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsActive = active
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.AuthEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event model.AuthEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) recordedEvents() []model.AuthEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuthEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeCalculationStore struct {
	mu     sync.Mutex
	calcs  map[uint]*model.Calculation
	nextID uint
}

func newFakeCalculationStore() *fakeCalculationStore {
	return &fakeCalculationStore{calcs: make(map[uint]*model.Calculation)}
}

func (f *fakeCalculationStore) Create(_ context.Context, calc *model.Calculation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	calc.ID = f.nextID
	now := time.Now()
	calc.CreatedAt = now
	calc.UpdatedAt = now
	cp := *calc
	f.calcs[calc.ID] = &cp
	return nil
}

func (f *fakeCalculationStore) ListByUserID(_ context.Context, userID uint, offset, limit int) ([]model.Calculation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var owned []model.Calculation
	for _, c := range f.calcs {
		if c.UserID == userID {
			owned = append(owned, *c)
		}
	}
	// Newest first, same as the MySQL query.
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

func (f *fakeCalculationStore) GetByIDAndUserID(_ context.Context, id, userID uint) (*model.Calculation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.calcs[id]; ok && c.UserID == userID {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCalculationStore) Update(_ context.Context, calc *model.Calculation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	calc.UpdatedAt = time.Now()
	cp := *calc
	f.calcs[calc.ID] = &cp
	return nil
}

func (f *fakeCalculationStore) DeleteByIDAndUserID(_ context.Context, id, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.calcs[id]; ok && c.UserID == userID {
		delete(f.calcs, id)
	}
	return nil
}

// remove bypasses the service, emulating an out-of-band delete.
func (f *fakeCalculationStore) remove(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.calcs, id)
}

type fakeHistoryCache struct {
	mu            sync.Mutex
	entries       map[uint][]model.Calculation
	sets          int
	invalidations int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{entries: make(map[uint][]model.Calculation)}
}

func (f *fakeHistoryCache) GetHistory(_ context.Context, userID uint) ([]model.Calculation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[userID]
	return entry, ok, nil
}

func (f *fakeHistoryCache) SetHistory(_ context.Context, userID uint, calcs []model.Calculation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[userID] = calcs
	f.sets++
	return nil
}

func (f *fakeHistoryCache) Invalidate(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	f.invalidations++
	return nil
}
