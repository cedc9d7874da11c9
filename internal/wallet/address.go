package wallet

import (
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// ValidateAddress accepts a base58 Solana public key (32 bytes decoded).
func ValidateAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrInvalidAddress
	}
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return "", ErrInvalidAddress
	}
	return addr, nil
}
