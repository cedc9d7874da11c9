package game

import (
	"strings"

	"bricks/internal/events"
)

const referralPrefix = "ref_"

// ReferralLedger remembers, per device, whether a referral bonus was already granted.
type ReferralLedger interface {
	ReferralUsed() bool
	MarkReferralUsed() error
}

// ParseReferralToken extracts the referrer id from a "ref_<digits>" start parameter.
func ParseReferralToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, referralPrefix) {
		return "", false
	}
	id := token[len(referralPrefix):]
	if id == "" {
		return "", false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id, true
}

func ReferralLink(botName, playerID string) string {
	return "https://t.me/" + botName + "?start=" + referralPrefix + playerID
}

// ApplyReferral grants the referral bonus at most once per device. It reports
// whether the bonus was applied.
func (e *Engine) ApplyReferral(token, selfID string, ledger ReferralLedger) (bool, error) {
	referrer, ok := ParseReferralToken(token)
	if !ok || referrer == selfID {
		return false, nil
	}
	if ledger == nil || ledger.ReferralUsed() {
		return false, nil
	}
	if err := ledger.MarkReferralUsed(); err != nil {
		return false, err
	}
	e.credit(ReferralBonusBux)
	e.state.Followers += ReferralBonusFollowers
	e.recompute()
	e.publish(events.RewardGranted, ReferralBonusBux, "referral:"+referrer)
	return true, nil
}
