package transfer

import (
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParseAmount converts a positive decimal string into base units for a mint
// with the given number of decimals, i.e. floor(amount * 10^decimals). The
// conversion runs entirely in integer arithmetic over the decimal string, so
// amounts expressible exactly at the mint's granularity never lose precision.
// Fractional digits beyond the mint's decimals are truncated (floor).
func ParseAmount(amount string, decimals uint8) (uint64, error) {
	s := strings.TrimSpace(amount)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrInvalidAmount
	}

	// Truncate precision the mint cannot represent.
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	// Right-pad the fraction to exactly `decimals` digits.
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := whole + frac
	if digits == "" {
		return 0, ErrInvalidAmount
	}

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, ErrInvalidAmount
	}
	if n.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if !n.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return n.Uint64(), nil
}

// digitsOnly reports whether s consists solely of ASCII digits. The empty
// string is allowed; callers reject the all-empty case separately.
func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidAddress reports whether s parses as a structurally valid on-chain
// address (base58, 32 bytes).
func IsValidAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
