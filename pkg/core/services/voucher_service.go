package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sibincbaby/vouchzy/pkg/core/codec"
	"github.com/sibincbaby/vouchzy/pkg/core/domain"
	"github.com/sibincbaby/vouchzy/pkg/core/validate"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

// RecentLimit bounds the recent-vouchers list.
const RecentLimit = 5

type VoucherService struct {
	repo      ports.VoucherRepository
	shortener ports.Shortener
	baseURL   string
	now       func() time.Time // injectable for tests
}

func NewVoucherService(repo ports.VoucherRepository, shortener ports.Shortener, baseURL string) *VoucherService {
	return &VoucherService{
		repo:      repo,
		shortener: shortener,
		baseURL:   baseURL,
		now:       time.Now,
	}
}

// Create validates the input, enforces the client's rate limits, persists the
// voucher and returns it with its shareable links. Every failure surfaces a
// distinct, user-attributable reason.
func (s *VoucherService) Create(ctx context.Context, clientID string, in ports.CreateVoucherInput) (*ports.CreateVoucherResult, error) {
	// Profanity is judged on the raw input; sanitizing first would strip the
	// very wildcards a masked word hides behind.
	rawFields := []struct{ name, value string }{
		{"title", in.Title},
		{"code", in.Code},
		{"provider", in.Provider},
		{"message", in.Message},
	}
	for _, f := range rawFields {
		if validate.ContainsProfanity(f.value) {
			return nil, &domain.ValidationError{Field: f.name, Reason: domain.ReasonProfanity}
		}
	}

	// Cosmetic cleanup for the fields that end up in the shortened URL.
	title := validate.Sanitize(in.Title)
	provider := validate.Sanitize(in.Provider)
	message := validate.Sanitize(in.Message)
	code := strings.TrimSpace(in.Code)

	fields := []struct{ name, value string }{
		{"title", title},
		{"code", code},
		{"provider", provider},
		{"message", message},
	}
	for _, f := range fields {
		if verr := validate.Field(f.name, f.value); verr != nil {
			return nil, verr
		}
	}

	if in.ExpiryDate != "" {
		if _, err := time.Parse(domain.DateLayout, in.ExpiryDate); err != nil {
			return nil, &domain.ValidationError{Field: "expiry_date", Reason: domain.ReasonInvalidDate}
		}
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	today := now.Format(domain.DateLayout)

	todays, err := s.repo.ListCreatedOn(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list today's vouchers: %w", err)
	}
	if validate.IsDuplicateCode(code, todays) {
		return nil, &domain.ValidationError{Field: "code", Reason: domain.ReasonDuplicate}
	}

	quota, err := s.repo.GetQuota(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load quota: %w", err)
	}
	if rerr := validate.CheckRate(quota, now); rerr != nil {
		return nil, rerr
	}

	v := &domain.Voucher{
		ID:         uuid.NewString(),
		Title:      title,
		Code:       code,
		Theme:      domain.ParseTheme(in.Theme),
		Provider:   provider,
		Message:    message,
		ExpiryDate: in.ExpiryDate,
		CreatedAt:  now,
	}

	// Record append and quota bump commit together or not at all.
	if err := s.repo.Create(ctx, v, clientID, validate.NextQuota(quota, now)); err != nil {
		return nil, fmt.Errorf("create voucher: %w", err)
	}

	shareURL, err := codec.Encode(v, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("encode share url: %w", err)
	}

	// Best effort: on any shortener failure the long URL is shared as-is.
	shortURL := shareURL
	if s.shortener != nil {
		shortURL = s.shortener.Shorten(ctx, shareURL)
	}

	return &ports.CreateVoucherResult{Voucher: v, ShareURL: shareURL, ShortURL: shortURL}, nil
}

// Resolve reconstructs the voucher a recipient opened. A decodable payload
// takes precedence over the stored record, since it reflects exactly what was
// shared; a malformed payload falls back to a store lookup by id.
func (s *VoucherService) Resolve(ctx context.Context, id string, query url.Values) (*domain.Voucher, error) {
	if codec.HasPayload(query) {
		v, err := codec.Decode(query)
		if err == nil {
			v.ID = id
			return v, nil
		}
		log.Printf("Malformed payload for voucher %s, falling back to store: %v", id, err)
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// Recent returns the most recently created vouchers, newest first.
func (s *VoucherService) Recent(ctx context.Context) ([]domain.Voucher, error) {
	return s.repo.Recent(ctx, RecentLimit)
}

func (s *VoucherService) RecordView(ctx context.Context, voucherID, referer, userAgent, ip string) error {
	v, err := s.repo.GetByID(ctx, voucherID)
	if err != nil {
		return err
	}
	if v == nil {
		return domain.ErrNotFound
	}

	// Simple privacy hash (in real app use salt)
	ipHash := ip

	view := &domain.View{
		VoucherID: v.ID,
		Referer:   referer,
		UserAgent: userAgent,
		IPHash:    ipHash,
		CreatedAt: s.now(),
	}
	return s.repo.RecordView(ctx, view)
}

func (s *VoucherService) GetViewStats(ctx context.Context, voucherID string) (*domain.ViewStats, error) {
	return s.repo.GetViewStats(ctx, voucherID)
}
