package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultHeliusBaseURL = "https://api.helius.xyz"

var (
	ErrNotConfigured = errors.New("wallet indexer api key not configured")
	ErrUpstream      = errors.New("wallet indexer request failed")
)

type NFT struct {
	Mint  string `json:"mint"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type Token struct {
	Mint     string  `json:"mint"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// Indexer lists what a wallet holds.
type Indexer interface {
	NFTs(ctx context.Context, wallet string) ([]NFT, error)
	Tokens(ctx context.Context, wallet string) ([]Token, error)
}

type HeliusClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHeliusClient(baseURL, apiKey string, httpClient *http.Client) *HeliusClient {
	if baseURL == "" {
		baseURL = DefaultHeliusBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HeliusClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    httpClient,
	}
}

func (c *HeliusClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *HeliusClient) NFTs(ctx context.Context, wallet string) ([]NFT, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body := map[string]any{
		"addresses":      []string{wallet},
		"displayOptions": map[string]any{"showFungible": false},
	}
	var out struct {
		Result []struct {
			MintAddress string `json:"mintAddress"`
			Name        string `json:"name"`
			ImageURL    string `json:"imageUrl"`
		} `json:"result"`
	}
	q := url.Values{"api-key": {c.apiKey}}
	if err := c.do(ctx, http.MethodPost, "/v0/addresses/?"+q.Encode(), body, &out); err != nil {
		return nil, err
	}
	nfts := make([]NFT, 0, len(out.Result))
	for _, r := range out.Result {
		nfts = append(nfts, NFT{Mint: r.MintAddress, Name: r.Name, Image: r.ImageURL})
	}
	return nfts, nil
}

func (c *HeliusClient) Tokens(ctx context.Context, wallet string) ([]Token, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var out struct {
		Result []struct {
			MintAddress string  `json:"mintAddress"`
			Amount      float64 `json:"amount"`
			Decimals    int     `json:"decimals"`
		} `json:"result"`
	}
	q := url.Values{"api-key": {c.apiKey}, "address": {wallet}}
	if err := c.do(ctx, http.MethodGet, "/v0/tokens/?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	tokens := make([]Token, 0, len(out.Result))
	for _, r := range out.Result {
		tokens = append(tokens, Token{Mint: r.MintAddress, Amount: r.Amount, Decimals: r.Decimals})
	}
	return tokens, nil
}

func (c *HeliusClient) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}
