// Package address derives program-owned account addresses.
//
// A derived address is a SHA-256 digest of a seed list and the owning
// program's identity, with a one-byte bump appended to the seeds. The
// bump is searched from 255 downward until the digest is not a valid
// ed25519 point, so no ordinary keypair can ever sign for the address.
// Only the program, by presenting the same seeds and bump, can authorize
// operations on it.
//
// Derivation is a pure function: the same seed, requester and program
// always produce the same address and bump, across processes.
package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/unclebandit/crowdfund-program/internal/model"
)

// CampaignSeed is the fixed domain seed for campaign record addresses.
const CampaignSeed = "crowdfund"

const (
	MaxSeeds   = 16
	MaxSeedLen = 32

	derivedMarker = "ProgramDerivedAddress"
)

var (
	ErrOnCurve      = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableBump = errors.New("no bump produces an off-curve address")
)

// Deriver is the address derivation capability consumed by the creation
// handler.
type Deriver interface {
	Derive(seed []byte, requester, program model.Address) (model.Address, uint8, error)
}

// ProgramDeriver is the ledger's derived-address scheme.
type ProgramDeriver struct{}

var _ Deriver = ProgramDeriver{}

// Derive returns the campaign-style address for (seed, requester) under
// program, together with the bump that produced it.
func (ProgramDeriver) Derive(seed []byte, requester, program model.Address) (model.Address, uint8, error) {
	return FindProgramAddress([][]byte{seed, requester[:]}, program)
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the
// first off-curve address.
func FindProgramAddress(seeds [][]byte, program model.Address) (model.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return model.Address{}, 0, fmt.Errorf("%d seeds leave no room for a bump", len(seeds))
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return model.Address{}, 0, err
		}
	}
	return model.Address{}, 0, ErrNoViableBump
}

// CreateProgramAddress hashes an explicit seed list, bump included. It
// fails with ErrOnCurve when the digest is a valid ed25519 point.
func CreateProgramAddress(seeds [][]byte, program model.Address) (model.Address, error) {
	if len(seeds) > MaxSeeds {
		return model.Address{}, fmt.Errorf("%d seeds, max %d", len(seeds), MaxSeeds)
	}

	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLen {
			return model.Address{}, fmt.Errorf("seed %d is %d bytes, max %d", i, len(s), MaxSeedLen)
		}
		h.Write(s)
	}
	h.Write(program[:])
	h.Write([]byte(derivedMarker))

	var addr model.Address
	copy(addr[:], h.Sum(nil))
	if OnCurve(addr) {
		return model.Address{}, ErrOnCurve
	}
	return addr, nil
}

// OnCurve reports whether addr decodes as an ed25519 point, i.e. whether
// some keypair could own it.
func OnCurve(addr model.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err == nil
}

// CampaignSeeds returns the seed list, bump excluded, that derives the
// campaign address of requester. Presented with the bump it authorizes
// operations on that address.
func CampaignSeeds(requester model.Address) [][]byte {
	return [][]byte{[]byte(CampaignSeed), requester[:]}
}
