package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bricks/internal/game"
	"bricks/internal/persist"
	"bricks/internal/wallet"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) UploadSave(ctx context.Context, payload persist.SavePayload) error {
	return c.jsonRequest(ctx, http.MethodPost, "/save", payload, nil)
}

func (c *Client) SubmitScore(ctx context.Context, rec game.ScoreRecord) error {
	_, err := c.SubmitScoreResult(ctx, rec)
	return err
}

// SubmitScoreResult reports whether the record replaced the stored best.
func (c *Client) SubmitScoreResult(ctx context.Context, rec game.ScoreRecord) (bool, error) {
	var out struct {
		Updated bool `json:"updated"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/leaderboard", rec, &out)
	return out.Updated, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]game.LeaderboardRow, error) {
	path := "/leaderboard"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out struct {
		Rows []game.LeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Rows, err
}

func (c *Client) WalletAssets(ctx context.Context, address string) (wallet.Quote, error) {
	var out wallet.Quote
	err := c.jsonRequest(ctx, http.MethodPost, "/wallet-assets", map[string]any{
		"walletAddress": address,
	}, &out)
	return out, err
}

type VerifyResult struct {
	Verified  bool      `json:"verified"`
	Wallet    string    `json:"wallet"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *Client) WalletVerify(ctx context.Context, address, signature, message string) (VerifyResult, error) {
	var out VerifyResult
	err := c.jsonRequest(ctx, http.MethodPost, "/wallet-verify", map[string]any{
		"walletAddress": address,
		"signature":     signature,
		"message":       message,
	}, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
