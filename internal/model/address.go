// internal/model/address.go
package model

import (
	"encoding/hex"
	"fmt"
)

// Address is a 32-byte ledger identity: a requester, a program or an
// account location.
type Address [32]byte

// SystemProgramID identifies the storage allocation service in an
// invocation's account list.
var SystemProgramID Address

// ParseAddress parses the 64-character hex form produced by String.
func ParseAddress(s string) (Address, error) {
	var a Address
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("parsing address: %w", err)
	}
	if len(decoded) != len(a) {
		return a, fmt.Errorf("address is %d bytes, want %d", len(decoded), len(a))
	}
	copy(a[:], decoded)
	return a, nil
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
