package store

import (
	"context"
	"fmt"
	"sync"

	"lunch-scheduler/project/domain"
)

// MemoryRepo はプロセス内メモリに予約を保持する domain.BookingRepository 実装です（ローカル開発・テスト用）
type MemoryRepo struct {
	mu       sync.RWMutex
	bookings map[string]domain.BookingRecord
}

// NewMemoryRepo は空の MemoryRepo を作成します
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{bookings: make(map[string]domain.BookingRecord)}
}

// Put は予約を保存します。同じ BookingID がある場合は domain.ErrAlreadyExists
func (repo *MemoryRepo) Put(ctx context.Context, b *domain.BookingRecord) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("memory: Put検証失敗: %w", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.bookings[b.BookingID]; exists {
		return fmt.Errorf("memory: %w (booking_id=%s)", domain.ErrAlreadyExists, b.BookingID)
	}
	repo.bookings[b.BookingID] = *b
	return nil
}

// Find は指定した BookingID の予約を返します
func (repo *MemoryRepo) Find(ctx context.Context, bookingID string) (*domain.BookingRecord, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	b, ok := repo.bookings[bookingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

// Len は保存済みの予約件数を返します
func (repo *MemoryRepo) Len() int {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return len(repo.bookings)
}

// Close は何もしません
func (repo *MemoryRepo) Close() error {
	return nil
}
