package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinPasswordCost is the lowest bcrypt cost the server accepts.
const MinPasswordCost = bcrypt.DefaultCost

// PasswordHasher hashes and verifies passwords with bcrypt. Context-aware
// methods share a weighted semaphore so concurrent logins cannot occupy
// every CPU at once.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher returns a hasher using cost. concurrency <= 0 means
// GOMAXPROCS.
func NewPasswordHasher(cost int, concurrency int64) (*PasswordHasher, error) {
	if cost < MinPasswordCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range", common.ErrorConfiguration, cost)
	}
	if concurrency <= 0 {
		concurrency = int64(runtime.GOMAXPROCS(0))
	}

	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), cost)
	if err != nil {
		return nil, err
	}

	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(concurrency), dummy: dummy}, nil
}

// Hash returns the self-describing bcrypt string for plaintext.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.NewPublicError(common.ErrorValidation, "password is too long")
		}
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch, never an error.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Compare is Verify bounded by the hashing semaphore. The error is only
// ever a context error.
func (h *PasswordHasher) Compare(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return h.Verify(plaintext, hash), nil
}

// CompareDummy spends the same work as Compare against a throwaway hash so
// an unknown username costs as much as a wrong password.
func (h *PasswordHasher) CompareDummy(ctx context.Context, plaintext string) error {
	_, err := h.Compare(ctx, plaintext, string(h.dummy))
	return err
}
