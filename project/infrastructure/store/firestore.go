package store

import (
	"context"
	"fmt"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/infrastructure/config"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// isNotFound は Firestore の NotFound エラーを判定するヘルパー関数です
func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.NotFound
}

// isAlreadyExists は Firestore の AlreadyExists エラーを判定するヘルパー関数です
func isAlreadyExists(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.AlreadyExists
}

// FirestoreRepo は domain.BookingRepository の Firestore 実装です
type FirestoreRepo struct {
	cli         *firestore.Client
	bookingsCol string
}

// NewFirestoreRepo は Firestore リポジトリを初期化します
func NewFirestoreRepo(ctx context.Context, cfg *config.Config) (*FirestoreRepo, error) {
	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: クライアント初期化失敗: %w", err)
	}

	return &FirestoreRepo{
		cli:         client,
		bookingsCol: cfg.CollectionBookings,
	}, nil
}

// Put は予約を新規作成します。同じ BookingID のドキュメントがある場合は上書きせずにエラーを返します
func (repo *FirestoreRepo) Put(ctx context.Context, b *domain.BookingRecord) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("firestore: Put検証失敗: %w", err)
	}

	docRef := repo.cli.Collection(repo.bookingsCol).Doc(b.BookingID)

	// Create は既存ドキュメントがあると AlreadyExists で失敗する（書き込みは一度きり）
	if _, err := docRef.Create(ctx, b); err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("firestore: %w (docID=%s)", domain.ErrAlreadyExists, b.BookingID)
		}
		return fmt.Errorf("firestore: 予約保存失敗 (docID=%s): %w", b.BookingID, err)
	}

	return nil
}

// Find は指定した BookingID の予約を取得します
func (repo *FirestoreRepo) Find(ctx context.Context, bookingID string) (*domain.BookingRecord, error) {
	docRef := repo.cli.Collection(repo.bookingsCol).Doc(bookingID)

	snapshot, err := docRef.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: 予約取得失敗 (docID=%s): %w", bookingID, err)
	}

	var b domain.BookingRecord
	if err := snapshot.DataTo(&b); err != nil {
		return nil, fmt.Errorf("firestore: 予約構造体変換失敗: %w", err)
	}

	return &b, nil
}

// Close は Firestore クライアントを閉じます
func (repo *FirestoreRepo) Close() error {
	if repo.cli != nil {
		return repo.cli.Close()
	}
	return nil
}
