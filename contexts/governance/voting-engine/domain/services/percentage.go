package services

import "math/big"

// PctBase is the fixed-point scale representing 100%. Quorum, support and
// declared-share values are all fractions of this base.
const PctBase uint64 = 1_000_000

var pctBase = new(big.Int).SetUint64(PctBase)

// MeetsPct reports whether value is at least pct of total, on the PctBase
// scale. The intermediate product is widened through big.Int, multiplication
// happens before the truncating division, and a zero total can never meet any
// percentage.
func MeetsPct(value uint64, total uint64, pct uint64) bool {
	if total == 0 {
		return false
	}
	scaled := new(big.Int).SetUint64(value)
	scaled.Mul(scaled, pctBase)
	scaled.Quo(scaled, new(big.Int).SetUint64(total))
	return scaled.Cmp(new(big.Int).SetUint64(pct)) >= 0
}

// MeetsSupportPct reports whether an accumulated weighted share is at least
// pct of the accumulated stake. Weighted-share units are declared share times
// stake, so the denominator is stake scaled by PctBase and the two base
// factors cancel into a plain truncating weightedShare/stake ratio.
func MeetsSupportPct(weightedShare uint64, stake uint64, pct uint64) bool {
	if stake == 0 {
		return false
	}
	ratio := new(big.Int).SetUint64(weightedShare)
	ratio.Mul(ratio, pctBase)
	denominator := new(big.Int).SetUint64(stake)
	denominator.Mul(denominator, pctBase)
	ratio.Quo(ratio, denominator)
	return ratio.Cmp(new(big.Int).SetUint64(pct)) >= 0
}
