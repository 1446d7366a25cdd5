// Package codec turns a voucher into a self-contained shareable URL and back.
// The payload is the only channel by which a recipient without access to the
// creator's store can reconstruct the voucher.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
)

// DataParam carries the encoded voucher payload; TimeParam carries the
// creation instant in epoch millis. TimeParam exists purely so otherwise
// identical payloads produce distinct URLs, which defeats caching and
// deduplication by shorteners and share targets.
const (
	DataParam = "data"
	TimeParam = "t"
)

// payload is the shareable subset of a voucher. The id travels in the URL
// path, not here.
type payload struct {
	Title      string `json:"title"`
	Code       string `json:"code"`
	Theme      string `json:"theme"`
	Provider   string `json:"provider,omitempty"`
	Message    string `json:"message,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	CreatedAt  int64  `json:"created_at"` // epoch millis
}

// Encode builds the canonical shareable URL for a voucher:
// <base>/voucher/<id>?data=<base64url payload>&t=<epoch-millis>.
func Encode(v *domain.Voucher, baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	p := payload{
		Title:      v.Title,
		Code:       v.Code,
		Theme:      string(v.Theme),
		Provider:   v.Provider,
		Message:    v.Message,
		ExpiryDate: v.ExpiryDate,
		CreatedAt:  v.CreatedAt.UnixMilli(),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	q := url.Values{}
	q.Set(DataParam, base64.RawURLEncoding.EncodeToString(raw))
	q.Set(TimeParam, strconv.FormatInt(p.CreatedAt, 10))

	// Append to the base path so a reverse-proxy subpath in baseURL survives.
	u.Path = strings.TrimSuffix(u.Path, "/") + "/voucher/" + v.ID
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HasPayload reports whether query carries an encoded payload at all.
// Its absence is not an error; it just forces a store lookup by id.
func HasPayload(query url.Values) bool {
	return query.Get(DataParam) != ""
}

// Decode is the inverse of Encode. The returned voucher has an empty ID; the
// caller fills it from the URL path. A malformed payload yields a
// *domain.DecodeError so the caller can fall back to the store.
func Decode(query url.Values) (*domain.Voucher, error) {
	data := query.Get(DataParam)
	if data == "" {
		return nil, &domain.DecodeError{Cause: fmt.Errorf("missing %q parameter", DataParam)}
	}

	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		// Tolerate padded or standard-alphabet variants produced by older clients.
		raw, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			return nil, &domain.DecodeError{Cause: fmt.Errorf("base64: %w", err)}
		}
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &domain.DecodeError{Cause: fmt.Errorf("payload structure: %w", err)}
	}
	if p.Title == "" || p.Code == "" {
		return nil, &domain.DecodeError{Cause: fmt.Errorf("payload missing title or code")}
	}

	return &domain.Voucher{
		Title:      p.Title,
		Code:       p.Code,
		Theme:      domain.ParseTheme(p.Theme),
		Provider:   p.Provider,
		Message:    p.Message,
		ExpiryDate: p.ExpiryDate,
		CreatedAt:  time.UnixMilli(p.CreatedAt).UTC(),
	}, nil
}

// DecodeURL parses a full shareable URL, returning the voucher with its ID
// taken from the /voucher/{id} path segment. Used by the CLI inspector.
func DecodeURL(raw string) (*domain.Voucher, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &domain.DecodeError{Cause: fmt.Errorf("parse url: %w", err)}
	}
	v, err := Decode(u.Query())
	if err != nil {
		return nil, err
	}
	// The /voucher/ segment may sit behind a base-path prefix.
	if _, rest, ok := strings.Cut(u.Path, "/voucher/"); ok {
		v.ID = rest
	}
	return v, nil
}
