package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"lunch-scheduler/project/domain"
)

// SQLRepo は domain.BookingRepository の database/sql 実装です（PostgreSQL / SQLite）
type SQLRepo struct {
	db     *sql.DB
	driver string
}

// NewSQLRepo は driver ("postgres" または "sqlite") のデータベースに接続し、テーブルを作成します
func NewSQLRepo(ctx context.Context, driver, dsn string) (*SQLRepo, error) {
	var sqlDriver string
	switch driver {
	case "postgres":
		sqlDriver = "postgres"
	case "sqlite":
		sqlDriver = "sqlite3"
	default:
		return nil, fmt.Errorf("sql: %w: 未対応のドライバです: %s", domain.ErrInvalid, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql: 接続失敗: %w", err)
	}

	// SQLite は単一接続にする（":memory:" は接続ごとに別のDBになるため）
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	repo := &SQLRepo{db: db, driver: driver}
	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (repo *SQLRepo) initSchema(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS lunch_bookings (
			booking_id     TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			lunch_datetime TEXT NOT NULL DEFAULT '',
			participants   TEXT NOT NULL DEFAULT '',
			channel        TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		)`

	if _, err := repo.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("sql: テーブル作成失敗: %w", err)
	}
	return nil
}

// Put は予約を1件挿入します。主キーが重複する場合は domain.ErrAlreadyExists を返します
func (repo *SQLRepo) Put(ctx context.Context, b *domain.BookingRecord) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("sql: Put検証失敗: %w", err)
	}

	query := repo.rebind(`INSERT INTO lunch_bookings
		(booking_id, user_id, lunch_datetime, participants, channel, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := repo.db.ExecContext(ctx, query,
		b.BookingID, b.UserID, b.LunchDateTime, b.Participants, b.Channel, b.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("sql: %w (booking_id=%s)", domain.ErrAlreadyExists, b.BookingID)
		}
		return fmt.Errorf("sql: 予約保存失敗 (booking_id=%s): %w", b.BookingID, err)
	}

	return nil
}

// Find は指定した BookingID の予約を取得します
func (repo *SQLRepo) Find(ctx context.Context, bookingID string) (*domain.BookingRecord, error) {
	query := repo.rebind(`SELECT booking_id, user_id, lunch_datetime, participants, channel, created_at
		FROM lunch_bookings WHERE booking_id = ?`)

	var b domain.BookingRecord
	err := repo.db.QueryRowContext(ctx, query, bookingID).Scan(
		&b.BookingID, &b.UserID, &b.LunchDateTime, &b.Participants, &b.Channel, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("sql: 予約取得失敗 (booking_id=%s): %w", bookingID, err)
	}

	return &b, nil
}

// Close はデータベース接続を閉じます
func (repo *SQLRepo) Close() error {
	return repo.db.Close()
}

// rebind は "?" プレースホルダを PostgreSQL の "$n" 形式に置き換えます
func (repo *SQLRepo) rebind(query string) string {
	if repo.driver != "postgres" {
		return query
	}

	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// isDuplicateKey は主キー重複エラーを判定します
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
