package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

const timestampLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS vouchers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		code TEXT NOT NULL,
		theme TEXT NOT NULL DEFAULT 'default',
		provider TEXT,
		message TEXT,
		expiry_date TEXT,
		created_at DATETIME NOT NULL,
		opens INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_vouchers_created_at ON vouchers(created_at);

	CREATE TABLE IF NOT EXISTS voucher_views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		voucher_id TEXT NOT NULL,
		referer TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(voucher_id) REFERENCES vouchers(id)
	);
	CREATE INDEX IF NOT EXISTS idx_voucher_views_voucher_id ON voucher_views(voucher_id);

	CREATE TABLE IF NOT EXISTS quotas (
		client_id TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		date TEXT NOT NULL,
		last_created_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// Create inserts the voucher and upserts the client's quota in one
// transaction, so a failed append never consumes daily-cap budget.
func (r *SQLiteRepository) Create(ctx context.Context, v *domain.Voucher, clientID string, q domain.Quota) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	queryVoucher := `INSERT INTO vouchers (id, title, code, theme, provider, message, expiry_date, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryVoucher,
		v.ID, v.Title, v.Code, string(v.Theme), v.Provider, v.Message,
		nullString(v.ExpiryDate), v.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return err
	}

	queryQuota := `INSERT INTO quotas (client_id, count, date, last_created_at) VALUES (?, ?, ?, ?)
			  ON CONFLICT(client_id) DO UPDATE SET count = excluded.count, date = excluded.date, last_created_at = excluded.last_created_at`
	_, err = tx.ExecContext(ctx, queryQuota,
		clientID, q.Count, q.Date, q.LastCreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return err
	}

	return tx.Commit()
}

const voucherColumns = `id, title, code, theme, provider, message, expiry_date, created_at, opens`

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = ?`

	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVouchers(rows)
}

func (r *SQLiteRepository) ListCreatedOn(ctx context.Context, day string) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE date(created_at) = ?`

	rows, err := r.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVouchers(rows)
}

func (r *SQLiteRepository) GetQuota(ctx context.Context, clientID string) (domain.Quota, error) {
	query := `SELECT count, date, last_created_at FROM quotas WHERE client_id = ?`

	var q domain.Quota
	var last string
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(&q.Count, &q.Date, &last)
	if err == sql.ErrNoRows {
		return domain.Quota{}, nil
	}
	if err != nil {
		return domain.Quota{}, err
	}
	q.LastCreatedAt, err = parseTimestamp(last)
	if err != nil {
		return domain.Quota{}, err
	}
	return q, nil
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Voucher, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+voucherColumns+` FROM vouchers ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVouchers(rows)
}

func (r *SQLiteRepository) RecordView(ctx context.Context, view *domain.View) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Insert View Record
	queryView := `INSERT INTO voucher_views (voucher_id, referer, user_agent, ip_hash, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryView, view.VoucherID, view.Referer, view.UserAgent, view.IPHash, view.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return err
	}

	// 2. Increment Voucher Opens Counter (Atomic)
	queryCount := `UPDATE vouchers SET opens = opens + 1 WHERE id = ?`
	_, err = tx.ExecContext(ctx, queryCount, view.VoucherID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetViewStats(ctx context.Context, voucherID string) (*domain.ViewStats, error) {
	stats := &domain.ViewStats{
		Referrers:  make(map[string]int64),
		DailyOpens: []domain.DailyOpen{},
	}

	// Total Opens
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voucher_views WHERE voucher_id = ?`, voucherID).Scan(&stats.TotalOpens)
	if err != nil {
		return nil, err
	}

	// Referrers
	rows, err := r.db.QueryContext(ctx, `SELECT referer, COUNT(*) as c FROM voucher_views WHERE voucher_id = ? GROUP BY referer ORDER BY c DESC LIMIT 10`, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		var count int64
		if err := rows.Scan(&ref, &count); err != nil {
			return nil, err
		}
		if ref == "" {
			ref = "Direct"
		}
		stats.Referrers[ref] = count
	}
	rows.Close()

	// Daily Opens (Last 30 days)
	rows2, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', created_at) as date, COUNT(*)
		FROM voucher_views
		WHERE voucher_id = ?
		GROUP BY date
		ORDER BY date DESC
		LIMIT 30`, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows2.Close()
	for rows2.Next() {
		var do domain.DailyOpen
		if err := rows2.Scan(&do.Date, &do.Count); err != nil {
			return nil, err
		}
		stats.DailyOpens = append(stats.DailyOpens, do)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row rowScanner) (*domain.Voucher, error) {
	var v domain.Voucher
	var theme string
	var provider, message, expiry sql.NullString
	var created string

	err := row.Scan(&v.ID, &v.Title, &v.Code, &theme, &provider, &message, &expiry, &created, &v.Opens)
	if err != nil {
		return nil, err
	}

	v.Theme = domain.ParseTheme(theme)
	v.Provider = provider.String
	v.Message = message.String
	v.ExpiryDate = expiry.String
	v.CreatedAt, err = parseTimestamp(created)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVouchers(rows *sql.Rows) ([]domain.Voucher, error) {
	var vouchers []domain.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, *v)
	}
	return vouchers, rows.Err()
}

func parseTimestamp(s string) (time.Time, error) {
	// modernc stores what we write; libsql may hand back RFC3339.
	if t, err := time.ParseInLocation(timestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure interface compliance
var _ ports.VoucherRepository = (*SQLiteRepository)(nil)
