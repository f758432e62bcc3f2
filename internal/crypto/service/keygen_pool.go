package service

import (
	"context"
	"crypto/rsa"

	"golang.org/x/sync/semaphore"
)

// KeygenPool bounds the number of concurrent RSA keypair generations so a
// burst of registrations cannot saturate every CPU. Generation itself has no
// shared mutable state; the semaphore is the only coordination point.
type KeygenPool struct {
	identity IdentityService
	sem      *semaphore.Weighted
}

// NewKeygenPool creates a pool allowing at most workers concurrent generations.
func NewKeygenPool(identity IdentityService, workers int) *KeygenPool {
	if workers <= 0 {
		workers = 1
	}
	return &KeygenPool{
		identity: identity,
		sem:      semaphore.NewWeighted(int64(workers)),
	}
}

// Generate acquires a slot and generates a keypair. Blocks while all slots
// are busy; respects context cancellation both while waiting and before the
// expensive generation starts.
func (p *KeygenPool) Generate(ctx context.Context) (*rsa.PrivateKey, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	return p.identity.Generate(ctx)
}
