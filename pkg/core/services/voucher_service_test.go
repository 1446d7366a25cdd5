package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/core/codec"
	"github.com/sibincbaby/vouchzy/pkg/core/domain"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

// fakeRepo is an in-memory VoucherRepository for service tests.
type fakeRepo struct {
	vouchers []domain.Voucher
	quotas   map[string]domain.Quota
	views    []domain.View
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotas: make(map[string]domain.Quota)}
}

func (f *fakeRepo) Create(ctx context.Context, v *domain.Voucher, clientID string, q domain.Quota) error {
	f.vouchers = append(f.vouchers, *v)
	f.quotas[clientID] = q
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	for i := range f.vouchers {
		if f.vouchers[i].ID == id {
			v := f.vouchers[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Recent(ctx context.Context, limit int) ([]domain.Voucher, error) {
	var out []domain.Voucher
	for i := len(f.vouchers) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.vouchers[i])
	}
	return out, nil
}

func (f *fakeRepo) ListCreatedOn(ctx context.Context, day string) ([]domain.Voucher, error) {
	var out []domain.Voucher
	for _, v := range f.vouchers {
		if v.CreatedAt.Format(domain.DateLayout) == day {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetQuota(ctx context.Context, clientID string) (domain.Quota, error) {
	return f.quotas[clientID], nil
}

func (f *fakeRepo) Dump(ctx context.Context) ([]domain.Voucher, error) {
	return f.vouchers, nil
}

func (f *fakeRepo) RecordView(ctx context.Context, view *domain.View) error {
	f.views = append(f.views, *view)
	return nil
}

func (f *fakeRepo) GetViewStats(ctx context.Context, voucherID string) (*domain.ViewStats, error) {
	stats := &domain.ViewStats{Referrers: map[string]int64{}}
	for _, v := range f.views {
		if v.VoucherID == voucherID {
			stats.TotalOpens++
		}
	}
	return stats, nil
}

type fakeShortener struct{ prefix string }

func (f *fakeShortener) Shorten(ctx context.Context, longURL string) string {
	if f.prefix == "" {
		return longURL
	}
	return f.prefix
}

func newTestService(repo *fakeRepo) (*VoucherService, *clock) {
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewVoucherService(repo, &fakeShortener{prefix: "https://sho.rt/x1"}, "https://vouchzy.app")
	s.now = c.now
	return s, c
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func validInput() ports.CreateVoucherInput {
	return ports.CreateVoucherInput{
		Title: "Birthday Gift",
		Code:  "BIRTHDAY2023",
		Theme: "birthday",
	}
}

func TestCreateHappyPath(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	result, err := svc.Create(context.Background(), "client-1", validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v := result.Voucher
	if v.ID == "" {
		t.Error("voucher must get an id")
	}
	if v.Theme != domain.ThemeBirthday {
		t.Errorf("theme = %s, want birthday", v.Theme)
	}
	if !strings.Contains(result.ShareURL, "/voucher/"+v.ID) {
		t.Errorf("share URL %s missing voucher path", result.ShareURL)
	}
	if result.ShortURL != "https://sho.rt/x1" {
		t.Errorf("short URL = %s", result.ShortURL)
	}

	// The share URL must decode back to the same record.
	u, _ := url.Parse(result.ShareURL)
	decoded, err := codec.Decode(u.Query())
	if err != nil {
		t.Fatalf("share URL payload did not decode: %v", err)
	}
	if decoded.Code != v.Code || decoded.Title != v.Title {
		t.Errorf("decoded %+v, want %+v", decoded, v)
	}

	if q := repo.quotas["client-1"]; q.Count != 1 {
		t.Errorf("quota count = %d, want 1", q.Count)
	}
}

func TestCreateSanitizesAndValidates(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	in := validInput()
	in.Title = "  Birthday   <Gift>  "
	result, err := svc.Create(context.Background(), "client-1", in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.Voucher.Title != "Birthday Gift" {
		t.Errorf("title = %q, want sanitized %q", result.Voucher.Title, "Birthday Gift")
	}
}

func TestCreateValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*ports.CreateVoucherInput)
		wantField  string
		wantReason string
	}{
		{
			name:       "Short title",
			mutate:     func(in *ports.CreateVoucherInput) { in.Title = "ab" },
			wantField:  "title",
			wantReason: domain.ReasonTooShort,
		},
		{
			name:       "Profane message",
			mutate:     func(in *ports.CreateVoucherInput) { in.Message = "f***k this is great" },
			wantField:  "message",
			wantReason: domain.ReasonProfanity,
		},
		{
			name:       "Bad expiry date",
			mutate:     func(in *ports.CreateVoucherInput) { in.ExpiryDate = "01/06/2025" },
			wantField:  "expiry_date",
			wantReason: domain.ReasonInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc, _ := newTestService(repo)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), "client-1", in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField || verr.Reason != tt.wantReason {
				t.Errorf("got %s/%s, want %s/%s", verr.Field, verr.Reason, tt.wantField, tt.wantReason)
			}
			if len(repo.vouchers) != 0 {
				t.Error("rejected input must not be persisted")
			}
		})
	}
}

func TestCreateDuplicateSameDay(t *testing.T) {
	repo := newFakeRepo()
	svc, clk := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "client-1", validInput()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Same code later the same day, different client, different casing.
	clk.advance(time.Hour)
	in := validInput()
	in.Code = " birthday2023 "
	_, err := svc.Create(ctx, "client-2", in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Reason != domain.ReasonDuplicate {
		t.Fatalf("got %v, want duplicate_code", err)
	}

	// Next day the same code is fine again.
	clk.advance(24 * time.Hour)
	if _, err := svc.Create(ctx, "client-2", in); err != nil {
		t.Fatalf("next-day create failed: %v", err)
	}
}

func TestCreateRateLimits(t *testing.T) {
	repo := newFakeRepo()
	svc, clk := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "client-1", validInput()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Under the 5s interval.
	clk.advance(3 * time.Second)
	in := validInput()
	in.Code = "OTHER123"
	_, err := svc.Create(ctx, "client-1", in)
	var rerr *domain.RateLimitError
	if !errors.As(err, &rerr) || rerr.Reason != domain.ReasonTooSoon {
		t.Fatalf("got %v, want too_soon", err)
	}

	// Different client is unaffected.
	if _, err := svc.Create(ctx, "client-2", in); err != nil {
		t.Fatalf("other client blocked: %v", err)
	}
}

func TestCreateDailyCap(t *testing.T) {
	repo := newFakeRepo()
	svc, clk := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		in := validInput()
		in.Code = in.Code[:8] + string(rune('A'+i)) + "XX"
		if _, err := svc.Create(ctx, "client-1", in); err != nil {
			t.Fatalf("create %d failed: %v", i+1, err)
		}
		clk.advance(time.Minute)
	}

	in := validInput()
	in.Code = "ELEVENTH"
	_, err := svc.Create(ctx, "client-1", in)
	var rerr *domain.RateLimitError
	if !errors.As(err, &rerr) || rerr.Reason != domain.ReasonDailyCap {
		t.Fatalf("11th create: got %v, want daily_cap", err)
	}

	// A new calendar day resets the counter.
	clk.advance(24 * time.Hour)
	if _, err := svc.Create(ctx, "client-1", in); err != nil {
		t.Fatalf("new-day create failed: %v", err)
	}
	if q := repo.quotas["client-1"]; q.Count != 1 {
		t.Errorf("new-day quota count = %d, want 1", q.Count)
	}
}

func TestResolvePayloadPrecedence(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	result, err := svc.Create(ctx, "client-1", validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := result.Voucher.ID

	// Craft a payload that differs from the stored record; the payload is
	// what was actually shared, so it wins.
	altered := *result.Voucher
	altered.Title = "Altered Title"
	alteredURL, _ := codec.Encode(&altered, "https://vouchzy.app")
	u, _ := url.Parse(alteredURL)

	got, err := svc.Resolve(ctx, id, u.Query())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.Title != "Altered Title" {
		t.Errorf("payload must take precedence, got title %q", got.Title)
	}
	if got.ID != id {
		t.Errorf("resolved id = %s, want %s", got.ID, id)
	}
}

func TestResolveFallsBackToStore(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	result, err := svc.Create(ctx, "client-1", validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := result.Voucher.ID

	// Corrupt payload falls back to the store.
	got, err := svc.Resolve(ctx, id, url.Values{"data": {"!!!corrupt!!!"}})
	if err != nil {
		t.Fatalf("resolve with corrupt payload failed: %v", err)
	}
	if got.Code != result.Voucher.Code {
		t.Errorf("fallback code = %s, want %s", got.Code, result.Voucher.Code)
	}

	// No payload at all also hits the store.
	if _, err := svc.Resolve(ctx, id, url.Values{}); err != nil {
		t.Fatalf("resolve without payload failed: %v", err)
	}

	// Unknown id with no payload is not found.
	if _, err := svc.Resolve(ctx, "nope", url.Values{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	repo := newFakeRepo()
	svc, clk := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		in := validInput()
		in.Code = in.Code[:8] + string(rune('A'+i)) + "YY"
		if _, err := svc.Create(ctx, "client-1", in); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		clk.advance(time.Minute)
	}

	recent, err := svc.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != RecentLimit {
		t.Fatalf("recent length = %d, want %d", len(recent), RecentLimit)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Error("recent list not newest-first")
		}
	}
}

func TestRecordView(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	result, err := svc.Create(ctx, "client-1", validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.RecordView(ctx, result.Voucher.ID, "https://chat.example", "test-agent", "1.2.3.4"); err != nil {
		t.Fatalf("RecordView failed: %v", err)
	}
	if err := svc.RecordView(ctx, "missing-id", "", "", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	stats, err := svc.GetViewStats(ctx, result.Voucher.ID)
	if err != nil {
		t.Fatalf("GetViewStats failed: %v", err)
	}
	if stats.TotalOpens != 1 {
		t.Errorf("total opens = %d, want 1", stats.TotalOpens)
	}
}
