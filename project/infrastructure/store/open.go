package store

import (
	"context"
	"fmt"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/infrastructure/config"
)

// Open は cfg.StoreDriver に応じた BookingRepository を作成します
// 失敗時は型付き nil ではなく素の nil を返します
func Open(ctx context.Context, cfg *config.Config) (domain.BookingRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreFirestore:
		repo, err := NewFirestoreRepo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.StorePostgres, config.StoreSQLite:
		repo, err := NewSQLRepo(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.StoreMemory, "":
		return NewMemoryRepo(), nil
	default:
		return nil, fmt.Errorf("store: %w: 未対応のストアです: %s", domain.ErrInvalid, cfg.StoreDriver)
	}
}
