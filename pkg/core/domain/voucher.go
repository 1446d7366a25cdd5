package domain

import "time"

// DateLayout is the calendar-day format used for expiry dates and quota keys.
const DateLayout = "2006-01-02"

// Voucher represents a shareable voucher record.
// It is constructed once from validated input and never mutated afterwards.
type Voucher struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	Theme      Theme     `json:"theme"`
	Provider   string    `json:"provider,omitempty"`
	Message    string    `json:"message,omitempty"`
	ExpiryDate string    `json:"expiry_date,omitempty"` // YYYY-MM-DD, empty means no expiry
	CreatedAt  time.Time `json:"created_at"`
	Opens      int64     `json:"opens,omitempty"` // Aggregated count
}

// Theme is a closed set of visual themes for rendering a voucher.
type Theme string

const (
	ThemeDefault   Theme = "default"
	ThemeBirthday  Theme = "birthday"
	ThemeChristmas Theme = "christmas"
	ThemeNewYear   Theme = "newyear"
	ThemeValentine Theme = "valentine"
	ThemeThankYou  Theme = "thankyou"
	ThemeCongrats  Theme = "congrats"
)

var themes = map[Theme]bool{
	ThemeDefault:   true,
	ThemeBirthday:  true,
	ThemeChristmas: true,
	ThemeNewYear:   true,
	ThemeValentine: true,
	ThemeThankYou:  true,
	ThemeCongrats:  true,
}

// ParseTheme maps free input onto the theme set, falling back to the default
// theme for anything unrecognized or empty.
func ParseTheme(s string) Theme {
	t := Theme(s)
	if themes[t] {
		return t
	}
	return ThemeDefault
}

// Quota tracks a client's voucher creations for the current calendar day.
// Date uses DateLayout; a stored date different from today means the counter
// is stale and resets on the next creation.
type Quota struct {
	Count         int       `json:"count"`
	Date          string    `json:"date"`
	LastCreatedAt time.Time `json:"last_created_at"`
}
