// Package policy holds the bridge's business rules: destination address
// format, minimum transfer amount, and the closing deadline.
package policy

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// AddressPrefix is the required prefix of a destination address.
	AddressPrefix = "0x"

	// AddressLength is the length of a destination address including
	// the prefix.
	AddressLength = 2 + 2*common.AddressLength
)

// IsValidDestination reports whether raw is a well-formed target chain
// address. A body that is entirely lower or upper case carries no checksum
// and is accepted on shape alone; a mixed case body must match its EIP-55
// checksum exactly. The input is never normalized.
func IsValidDestination(raw string) bool {
	if len(raw) != AddressLength || !strings.HasPrefix(raw, AddressPrefix) {
		return false
	}
	if !common.IsHexAddress(raw) {
		return false
	}

	body := raw[len(AddressPrefix):]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}

	return common.HexToAddress(raw).Hex() == raw
}
