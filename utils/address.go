package utils

import "regexp"

var (
	hexRe    = regexp.MustCompile("^[0-9a-fA-F]+$")
	base58Re = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// IsBase58Address reports whether s is a plausible base58 account key
// (Solana addresses are 32-44 characters of the base58 alphabet).
func IsBase58Address(s string) bool {
	return len(s) >= 32 && len(s) <= 44 && base58Re.MatchString(s)
}

// IsMoveAddress reports whether s is a Move-style account address as used
// by Aptos and Sui: 0x followed by up to 64 hex characters.
func IsMoveAddress(s string) bool {
	if len(s) < 3 || len(s) > 66 || s[0:2] != "0x" {
		return false
	}
	return hexRe.MatchString(s[2:])
}
