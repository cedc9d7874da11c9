package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingToken     = errors.New("missing host auth token")
	ErrMissingHash      = errors.New("init data has no hash")
	ErrInvalidSignature = errors.New("init data signature mismatch")
	ErrPlayerMismatch   = errors.New("signed user does not match player id")
	ErrMalformedToken   = errors.New("malformed init data")
)

// TelegramUser is the "user" field of Mini App init data.
type TelegramUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type InitData struct {
	User       TelegramUser
	AuthDate   time.Time
	StartParam string
	QueryID    string
}

func (d InitData) PlayerID() string {
	if d.User.ID == 0 {
		return ""
	}
	return strconv.FormatInt(d.User.ID, 10)
}

func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// dataCheckString joins every field except hash as sorted key=value lines.
func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

// Sign computes the hash Telegram would attach to values.
func Sign(values url.Values, botToken string) string {
	mac := hmac.New(sha256.New, secretKey(botToken))
	mac.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignInitData returns values encoded with a valid hash appended.
func SignInitData(values url.Values, botToken string) string {
	signed := url.Values{}
	for k, v := range values {
		if k != "hash" {
			signed[k] = slices.Clone(v)
		}
	}
	signed.Set("hash", Sign(signed, botToken))
	return signed.Encode()
}

// ValidateInitData checks the HMAC of a raw init data query string and decodes it.
func ValidateInitData(raw, botToken string) (InitData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return InitData{}, ErrMissingToken
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	got := values.Get("hash")
	if got == "" {
		return InitData{}, ErrMissingHash
	}
	want := Sign(values, botToken)
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return InitData{}, ErrInvalidSignature
	}
	return decodeInitData(values)
}

// ParseInitData decodes init data without checking its signature.
func ParseInitData(raw string) (InitData, error) {
	values, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return InitData{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return decodeInitData(values)
}

func decodeInitData(values url.Values) (InitData, error) {
	out := InitData{
		StartParam: values.Get("start_param"),
		QueryID:    values.Get("query_id"),
	}
	if rawUser := values.Get("user"); rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &out.User); err != nil {
			return InitData{}, fmt.Errorf("%w: user: %v", ErrMalformedToken, err)
		}
	}
	if v := values.Get("auth_date"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return InitData{}, fmt.Errorf("%w: auth_date: %v", ErrMalformedToken, err)
		}
		out.AuthDate = time.Unix(secs, 0).UTC()
	}
	return out, nil
}
