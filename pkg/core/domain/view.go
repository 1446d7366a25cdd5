package domain

import "time"

// View represents a recipient opening a shared voucher
type View struct {
	ID        int64     `json:"id"`
	VoucherID string    `json:"voucher_id"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
	IPHash    string    `json:"ip_hash"` // Anonymized IP
	CreatedAt time.Time `json:"created_at"`
}

// ViewStats represents aggregated open statistics for a voucher
type ViewStats struct {
	TotalOpens int64            `json:"total_opens"`
	Referrers  map[string]int64 `json:"referrers"`   // count by domain
	DailyOpens []DailyOpen      `json:"daily_opens"` // timeline
}

type DailyOpen struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
