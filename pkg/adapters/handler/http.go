package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
	"github.com/sibincbaby/vouchzy/pkg/core/expiry"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

type HTTPHandler struct {
	service ports.VoucherService
	oracle  *expiry.Oracle
}

func NewHTTPHandler(service ports.VoucherService, oracle *expiry.Oracle) *HTTPHandler {
	return &HTTPHandler{service: service, oracle: oracle}
}

// CreateVoucherRequest payload
type CreateVoucherRequest struct {
	Title      string `json:"title"`
	Code       string `json:"code"`
	Theme      string `json:"theme,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Message    string `json:"message,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// CreateVoucherResponse bundles the record with both share links.
type CreateVoucherResponse struct {
	Voucher  *domain.Voucher `json:"voucher"`
	ShareURL string          `json:"share_url"`
	ShortURL string          `json:"short_url"`
}

// ResolveResponse is what a recipient sees when opening a shared link.
type ResolveResponse struct {
	Voucher   *domain.Voucher `json:"voucher"`
	Expired   bool            `json:"expired"`
	Remaining string          `json:"remaining,omitempty"`
	Verified  bool            `json:"verified"`
}

// Create Voucher
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Create(r.Context(), clientIDFromContext(r.Context()), ports.CreateVoucherInput{
		Title:      req.Title,
		Code:       req.Code,
		Theme:      req.Theme,
		Provider:   req.Provider,
		Message:    req.Message,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		writeCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateVoucherResponse{
		Voucher:  result.Voucher,
		ShareURL: result.ShareURL,
		ShortURL: result.ShortURL,
	})
}

// Resolve renders a shared voucher. The query payload takes precedence; a
// missing or malformed payload falls back to the store by id.
func (h *HTTPHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "voucher id missing")
		return
	}

	v, err := h.service.Resolve(r.Context(), id, r.URL.Query())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "voucher not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := h.oracle.Status(r.Context(), v.ExpiryDate)

	// Async open tracking (only if query param "no_stat" is not set)
	if r.URL.Query().Get("no_stat") == "" {
		referer := r.Header.Get("Referer")
		userAgent := r.UserAgent()
		ip := r.RemoteAddr // naive
		go func() {
			// Use background context as request context will be cancelled
			_ = h.service.RecordView(context.Background(), id, referer, userAgent, ip)
		}()
	}

	writeJSON(w, http.StatusOK, ResolveResponse{
		Voucher:   v,
		Expired:   status.Expired,
		Remaining: status.Remaining,
		Verified:  status.Verified,
	})
}

// Recent lists the newest vouchers, most recent first.
func (h *HTTPHandler) Recent(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.service.Recent(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if vouchers == nil {
		vouchers = []domain.Voucher{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vouchers": vouchers})
}

// Stats returns open statistics for one voucher.
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "voucher id missing")
		return
	}

	stats, err := h.service.GetViewStats(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeCreateError maps the domain error taxonomy onto HTTP statuses with a
// structured reason so the form can point at the offending field.
func writeCreateError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "validation_failed",
			"field":  verr.Field,
			"reason": verr.Reason,
		})
		return
	}

	var rerr *domain.RateLimitError
	if errors.As(err, &rerr) {
		if rerr.RetryAfter > 0 {
			// Round up so a client that waits the advertised time is not
			// rejected again by a fractional remainder.
			seconds := int(math.Ceil(rerr.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error":  "rate_limited",
			"reason": rerr.Reason,
		})
		return
	}

	writeError(w, http.StatusInternalServerError, "internal error")
}
