package services

import (
	"context"
	"sync"
	"time"

	"menuhub/internal/auth"
	"menuhub/internal/models"
)

// memStore is an in-memory Store enforcing the same uniqueness rules as the
// database.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	identities  map[int64]*models.Identity
	links       map[string]int64
	permissions map[int64]models.PermissionRecord
	branchOwner map[int64]int64
	failLink    bool
}

func newMemStore() *memStore {
	return &memStore{
		identities:  map[int64]*models.Identity{},
		links:       map[string]int64{},
		permissions: map[int64]models.PermissionRecord{},
		branchOwner: map[int64]int64{},
	}
}

func linkKey(provider, subject string) string { return provider + "|" + subject }

func (m *memStore) FindByID(_ context.Context, id int64) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	c := *identity
	return &c, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, identity := range m.identities {
		if identity.Email == email {
			c := *identity
			return &c, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memStore) FindByProviderSubject(_ context.Context, provider, subject string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.links[linkKey(provider, subject)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	c := *m.identities[id]
	return &c, nil
}

func (m *memStore) FindPermissions(_ context.Context, identityID int64) (models.PermissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permissions[identityID], nil
}

func (m *memStore) CreateIdentity(_ context.Context, identity *models.Identity, link *models.ProviderLink, record models.PermissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity.Email = models.NormalizeEmail(identity.Email)
	if err := identity.CheckInvariants(); err != nil {
		return err
	}
	for _, existing := range m.identities {
		if existing.Email == identity.Email {
			return auth.ErrDuplicateAccount
		}
	}
	if link != nil {
		if m.failLink {
			return auth.ErrDuplicateAccount
		}
		if _, taken := m.links[linkKey(link.Provider, link.Subject)]; taken {
			return auth.ErrDuplicateAccount
		}
	}

	m.nextID++
	identity.ID = m.nextID
	identity.CreatedAt = time.Now()
	c := *identity
	m.identities[identity.ID] = &c
	if link != nil {
		link.IdentityID = identity.ID
		m.links[linkKey(link.Provider, link.Subject)] = identity.ID
	}
	if record != nil {
		m.permissions[identity.ID] = record
	}
	return nil
}

func (m *memStore) TouchLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return auth.ErrNotFound
	}
	identity.LastLoginAt = &at
	return nil
}

func (m *memStore) UpdatePermissions(_ context.Context, identityID int64, record models.PermissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.permissions[identityID]; !ok {
		return auth.ErrNotFound
	}
	m.permissions[identityID] = record
	return nil
}

func (m *memStore) UpdateState(_ context.Context, id int64, state models.LifecycleState, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return auth.ErrNotFound
	}
	identity.State = state
	identity.Active = active
	return nil
}

func (m *memStore) PromoteToEmployee(_ context.Context, id, branchID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok || identity.Role != models.RoleGuest {
		return auth.ErrNotFound
	}
	identity.Role = models.RoleEmployee
	identity.BranchID = &branchID
	m.permissions[id] = models.DefaultPermissionRecord()
	return nil
}

func (m *memStore) BranchOwnedBy(_ context.Context, branchID, adminID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branchOwner[branchID] == adminID, nil
}

func (m *memStore) DeleteStaleGuests(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, identity := range m.identities {
		if identity.Role == models.RoleGuest && identity.CreatedAt.Before(before) && identity.LastLoginAt == nil {
			delete(m.identities, id)
			n++
		}
	}
	return n, nil
}

// put stores identity as-is, bypassing uniqueness checks.
func (m *memStore) put(identity models.Identity) *models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	identity.ID = m.nextID
	identity.Email = models.NormalizeEmail(identity.Email)
	m.identities[identity.ID] = &identity
	c := identity
	return &c
}

type fakeVerifier struct {
	identity *auth.FederatedIdentity
	err      error
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.FederatedIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if idToken != "good-id-token" {
		return nil, auth.ErrInvalidCredentials
	}
	c := *f.identity
	return &c, nil
}

type fakeLimiter struct {
	mu      sync.Mutex
	allowed int
	seen    map[string]int
	err     error
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[key]++
	return f.seen[key] <= f.allowed, nil
}

type fakeAvatars struct {
	url string
	err error
}

func (f *fakeAvatars) MirrorRemote(context.Context, string) (string, error) {
	return f.url, f.err
}
