package utils

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptHasher bcrypt 实现；sem 限制同时进行的哈希计算数，避免 CPU 被打满
type BcryptHasher struct {
	Cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher cost 越界时回落到 bcrypt.DefaultCost；workers<=0 时按 GOMAXPROCS
func NewBcryptHasher(cost, workers int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &BcryptHasher{Cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

func (h *BcryptHasher) Hash(ctx context.Context, pw string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
