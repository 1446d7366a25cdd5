package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
)

// VoucherRepository defines storage operations for vouchers
type VoucherRepository interface {
	// Create appends the voucher and persists the client's updated quota in
	// the same transaction; partial commits would let a failed creation eat
	// into the daily cap.
	Create(ctx context.Context, v *domain.Voucher, clientID string, q domain.Quota) error
	GetByID(ctx context.Context, id string) (*domain.Voucher, error)
	Recent(ctx context.Context, limit int) ([]domain.Voucher, error)
	ListCreatedOn(ctx context.Context, day string) ([]domain.Voucher, error)
	GetQuota(ctx context.Context, clientID string) (domain.Quota, error)
	Dump(ctx context.Context) ([]domain.Voucher, error) // For migration

	// Stats
	RecordView(ctx context.Context, view *domain.View) error
	GetViewStats(ctx context.Context, voucherID string) (*domain.ViewStats, error)
}

// TimeSource supplies an externally verified current instant. Implementations
// return an error when the instant could not be obtained; callers fall back
// to the local clock.
type TimeSource interface {
	Now(ctx context.Context) (time.Time, error)
}

// Shortener maps a long URL to a shorter one. On any failure the original
// URL comes back unchanged; it never errors to the caller.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// VoucherService defines the business logic operations
type VoucherService interface {
	Create(ctx context.Context, clientID string, in CreateVoucherInput) (*CreateVoucherResult, error)
	Resolve(ctx context.Context, id string, query url.Values) (*domain.Voucher, error)
	Recent(ctx context.Context) ([]domain.Voucher, error)

	// Stats
	RecordView(ctx context.Context, voucherID, referer, userAgent, ip string) error
	GetViewStats(ctx context.Context, voucherID string) (*domain.ViewStats, error)
}

// CreateVoucherInput is the raw form input for a new voucher.
type CreateVoucherInput struct {
	Title      string
	Code       string
	Theme      string
	Provider   string
	Message    string
	ExpiryDate string // YYYY-MM-DD, optional
}

// CreateVoucherResult bundles the created record with its shareable links.
type CreateVoucherResult struct {
	Voucher  *domain.Voucher
	ShareURL string
	ShortURL string
}
