package vault

import "github.com/ardanlabs/argonsim/foundation/simulation/numeric"

// UnlockBurnPerBitcoinDollar returns how many argons must be burned to
// release one dollar of vaulted bitcoin when argons trade at ratio. The
// curve is 1 at or above par, quadratic just below par and rational as the
// price heads to zero.
func UnlockBurnPerBitcoinDollar(ratio float64) float64 {
	r := ratio

	switch {
	case r >= 1.00:
		return 1
	case r >= 0.90:
		return 20*r*r - 38*r + 19
	case r >= 0.01:
		return numeric.Divide(0.5618*r+0.3944, r)
	default:
		return numeric.Divide(1, r) * (0.576*r + 0.40)
	}
}
