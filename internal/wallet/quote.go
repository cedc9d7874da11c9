package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"bricks/internal/game"
)

const (
	BuxPerNFT      = 1000
	MaxNFTClout    = 5
	BuxPerToken    = 100
	TokensPerClout = 100
	MaxTokenClout  = 3

	DefaultQuoteTTL = 5 * time.Minute
)

// Quote is the response body of a wallet asset lookup.
type Quote struct {
	Wallet       string            `json:"wallet"`
	NFTs         int               `json:"nfts"`
	Tokens       int               `json:"tokens"`
	NFTDetails   []NFT             `json:"nftDetails"`
	TokenDetails []Token           `json:"tokenDetails"`
	Rewards      game.WalletReward `json:"rewards"`
}

// Reward turns holdings into a bux/clout grant.
func Reward(nfts []NFT, tokens []Token) game.WalletReward {
	var r game.WalletReward
	if n := int64(len(nfts)); n > 0 {
		r.Bux += n * BuxPerNFT
		r.Clout += min(n, MaxNFTClout)
	}
	var holding float64
	for _, t := range tokens {
		holding += t.Amount / math.Pow(10, float64(t.Decimals))
	}
	if holding > 0 {
		bux := floorToInt(holding * BuxPerToken)
		if r.Bux > math.MaxInt64-bux {
			r.Bux = math.MaxInt64
		} else {
			r.Bux += bux
		}
		r.Clout += min(floorToInt(holding/TokensPerClout), MaxTokenClout)
	}
	if len(nfts) > 0 {
		r.Reason = fmt.Sprintf("%d NFTs detected", len(nfts))
	} else {
		r.Reason = "No NFTs"
	}
	return r
}

// floorToInt saturates at MaxInt64 instead of overflowing.
func floorToInt(f float64) int64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(f))
}

// Quoter caches quotes per address.
type Quoter struct {
	indexer Indexer
	cache   *ttlcache.Cache[string, Quote]
	log     *slog.Logger
}

func NewQuoter(indexer Indexer, ttl time.Duration, logger *slog.Logger) (*Quoter, func()) {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache := ttlcache.New[string, Quote](
		ttlcache.WithTTL[string, Quote](ttl),
		ttlcache.WithDisableTouchOnHit[string, Quote](),
	)
	go cache.Start()
	return &Quoter{indexer: indexer, cache: cache, log: logger}, cache.Stop
}

func (q *Quoter) Quote(ctx context.Context, address string) (Quote, error) {
	addr, err := ValidateAddress(address)
	if err != nil {
		return Quote{}, err
	}
	if item := q.cache.Get(addr); item != nil {
		return item.Value(), nil
	}

	nfts, err := q.indexer.NFTs(ctx, addr)
	if err != nil {
		return Quote{}, fmt.Errorf("list nfts: %w", err)
	}
	tokens, err := q.indexer.Tokens(ctx, addr)
	if err != nil {
		return Quote{}, fmt.Errorf("list tokens: %w", err)
	}
	out := Quote{
		Wallet:       addr,
		NFTs:         len(nfts),
		Tokens:       len(tokens),
		NFTDetails:   nfts,
		TokenDetails: tokens,
		Rewards:      Reward(nfts, tokens),
	}
	q.cache.Set(addr, out, ttlcache.DefaultTTL)
	q.log.Info("wallet quote", "wallet", addr, "nfts", out.NFTs, "tokens", out.Tokens, "bux", out.Rewards.Bux)
	return out, nil
}
