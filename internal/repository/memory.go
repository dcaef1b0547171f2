package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/auth-gateway/internal/domain"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

// memoryIdentityRepository keeps identities in a mutex-guarded map, keyed by
// email. This is the default store; state lives for the process lifetime.
type memoryIdentityRepository struct {
	mu         sync.RWMutex
	identities map[string]domain.Identity
}

// NewMemoryIdentityRepository returns the in-process identity store.
func NewMemoryIdentityRepository() IdentityRepository {
	return &memoryIdentityRepository{identities: make(map[string]domain.Identity)}
}

func (r *memoryIdentityRepository) Create(_ context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.identities[identity.Email]; ok {
		return apperrors.NewDuplicateEmail(identity.Email)
	}
	identity.CreatedAt = time.Now()
	r.identities[identity.Email] = *identity
	return nil
}

func (r *memoryIdentityRepository) Exists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.identities[email]
	return ok, nil
}

// memoryRefreshTokenRepository maps token strings to owning emails. There is
// no eviction sweep; expired entries are harmless because verification
// rejects the token before ownership lookup.
type memoryRefreshTokenRepository struct {
	mu     sync.RWMutex
	owners map[string]string
}

// NewMemoryRefreshTokenRepository returns the in-process refresh token table.
func NewMemoryRefreshTokenRepository() RefreshTokenRepository {
	return &memoryRefreshTokenRepository{owners: make(map[string]string)}
}

func (r *memoryRefreshTokenRepository) Record(_ context.Context, token, email string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners[token] = email
	return nil
}

func (r *memoryRefreshTokenRepository) Known(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.owners[token]
	return ok, nil
}

func (r *memoryRefreshTokenRepository) OwnerOf(_ context.Context, token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email, ok := r.owners[token]
	if !ok {
		return "", apperrors.NewUnknownToken("refresh token not recognized")
	}
	return email, nil
}
