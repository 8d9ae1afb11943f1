// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/page"
	"github.com/storeadmin/blocklayer/internal/app/domain/stats"
	"github.com/storeadmin/blocklayer/internal/app/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements the storage interfaces over PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.SettingsStore = (*Store)(nil)
var _ storage.PageStore = (*Store)(nil)
var _ storage.StatsStore = (*Store)(nil)

// Open connects to the database, runs pending migrations, and returns the
// store.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := New(db)
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New creates a Store using the provided database handle. Migrations are
// the caller's responsibility.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(s.db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// --- SettingsStore ------------------------------------------------------------

func (s *Store) GetSetting(ctx context.Context, userID, key string) (json.RawMessage, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `
		SELECT value
		FROM user_settings
		WHERE user_id = $1 AND key = $2
	`, userID, key)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(value), nil
}

func (s *Store) SetSetting(ctx context.Context, userID, key string, value json.RawMessage) error {
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, userID, key, []byte(value), time.Now().UTC())
	return err
}

func (s *Store) ListSettings(ctx context.Context, userID string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT key, value
		FROM user_settings
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = json.RawMessage(value)
	}
	return out, rows.Err()
}

// --- PageStore -----------------------------------------------------------------

type pageRow struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	Status    string    `db:"status"`
	Locale    string    `db:"locale"`
	Blocks    []byte    `db:"blocks"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r pageRow) toDomain() (page.Page, error) {
	p := page.Page{
		ID:        r.ID,
		Slug:      r.Slug,
		Title:     r.Title,
		Status:    r.Status,
		Locale:    r.Locale,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Blocks) > 0 {
		if err := json.Unmarshal(r.Blocks, &p.Blocks); err != nil {
			return page.Page{}, fmt.Errorf("decode page blocks: %w", err)
		}
	}
	if p.Blocks == nil {
		p.Blocks = []block.Config{}
	}
	return p, nil
}

func (s *Store) CreatePage(ctx context.Context, p page.Page) (page.Page, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = page.StatusDraft
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	blocksJSON, err := json.Marshal(p.Blocks)
	if err != nil {
		return page.Page{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (id, slug, title, status, locale, blocks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Slug, p.Title, p.Status, p.Locale, blocksJSON, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return page.Page{}, err
	}
	return p, nil
}

func (s *Store) UpdatePage(ctx context.Context, p page.Page) (page.Page, error) {
	existing, err := s.GetPage(ctx, p.ID)
	if err != nil {
		return page.Page{}, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	blocksJSON, err := json.Marshal(p.Blocks)
	if err != nil {
		return page.Page{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET slug = $2, title = $3, status = $4, locale = $5, blocks = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, p.Slug, p.Title, p.Status, p.Locale, blocksJSON, p.UpdatedAt)
	if err != nil {
		return page.Page{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return page.Page{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetPage(ctx context.Context, id string) (page.Page, error) {
	var row pageRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, slug, title, status, locale, blocks, created_at, updated_at
		FROM pages
		WHERE id = $1
	`, id)
	if err != nil {
		return page.Page{}, err
	}
	return row.toDomain()
}

func (s *Store) GetPageBySlug(ctx context.Context, slug string) (page.Page, error) {
	var row pageRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, slug, title, status, locale, blocks, created_at, updated_at
		FROM pages
		WHERE slug = $1
	`, slug)
	if err != nil {
		return page.Page{}, err
	}
	return row.toDomain()
}

func (s *Store) ListPages(ctx context.Context) ([]page.Page, error) {
	var rows []pageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, slug, title, status, locale, blocks, created_at, updated_at
		FROM pages
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}

	result := make([]page.Page, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) DeletePage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- StatsStore -----------------------------------------------------------------

func (s *Store) StoreStats(ctx context.Context) (stats.Snapshot, error) {
	var snap stats.Snapshot
	err := s.db.GetContext(ctx, &snap.Orders, `SELECT COUNT(*) FROM orders`)
	if err != nil {
		return stats.Snapshot{}, err
	}
	err = s.db.GetContext(ctx, &snap.Revenue, `SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'`)
	if err != nil {
		return stats.Snapshot{}, err
	}
	err = s.db.GetContext(ctx, &snap.Customers, `SELECT COUNT(*) FROM customers`)
	if err != nil {
		return stats.Snapshot{}, err
	}
	err = s.db.GetContext(ctx, &snap.Currency, `SELECT COALESCE(MIN(currency), 'USD') FROM orders`)
	if err != nil {
		return stats.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) DailyOrders(ctx context.Context, days int) ([]stats.DailyCount, error) {
	if days <= 0 {
		days = 14
	}
	rows, err := s.db.QueryxContext(ctx, `
		SELECT to_char(placed_at::date, 'YYYY-MM-DD') AS date, COUNT(*) AS orders
		FROM orders
		WHERE placed_at >= now() - ($1 || ' days')::interval
		GROUP BY placed_at::date
		ORDER BY placed_at::date
	`, fmt.Sprintf("%d", days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []stats.DailyCount
	for rows.Next() {
		var d stats.DailyCount
		if err := rows.Scan(&d.Date, &d.Orders); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]stats.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var result []stats.Order
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, number, customer_name, total, status, placed_at
		FROM orders
		ORDER BY placed_at DESC
		LIMIT $1
	`, limit)
	return result, err
}

func (s *Store) LowStock(ctx context.Context, threshold int) ([]stats.StockItem, error) {
	if threshold <= 0 {
		threshold = 5
	}
	var result []stats.StockItem
	err := s.db.SelectContext(ctx, &result, `
		SELECT id AS product_id, name, sku, quantity
		FROM products
		WHERE quantity <= $1
		ORDER BY quantity
	`, threshold)
	return result, err
}
