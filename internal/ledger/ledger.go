// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"

	"github.com/unclebandit/crowdfund-program/internal/model"
)

// Failure reasons reported by Allocate. Callers wrap them as
// AllocationFailed; they are exported so hosts and tests can tell them
// apart with errors.Is.
var (
	ErrAccountInUse      = errors.New("account already in use")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSignerMismatch    = errors.New("signer seeds do not derive address")
	ErrUnknownHandle     = errors.New("unknown account handle")
	ErrSizeMismatch      = errors.New("write size differs from account size")
	ErrTxDone            = errors.New("transaction already committed or rolled back")
)

// Handle names an account allocated within the current transaction.
type Handle struct {
	Address model.Address
}

// SignerSeeds is the delegated signing capability presented with an
// allocation: the seeds plus bump must re-derive the target address under
// the requested owner.
type SignerSeeds struct {
	Seeds [][]byte
	Bump  uint8
}

// All returns the seed list with the bump appended.
func (s SignerSeeds) All() [][]byte {
	out := make([][]byte, 0, len(s.Seeds)+1)
	out = append(out, s.Seeds...)
	return append(out, []byte{s.Bump})
}

// AllocateRequest asks the storage service for a new account.
type AllocateRequest struct {
	Payer    model.Address
	Address  model.Address
	Size     int
	Owner    model.Address
	Lamports uint64
	Signer   SignerSeeds
}

// Allocator is the storage allocation capability the creation handler
// consumes.
type Allocator interface {
	MinimumBalance(ctx context.Context, size int) (uint64, error)
	Allocate(ctx context.Context, req AllocateRequest) (Handle, error)
	Read(ctx context.Context, h Handle) ([]byte, error)
	Write(ctx context.Context, h Handle, data []byte) error
}

// Tx scopes one invocation. Nothing it writes is visible to other
// transactions until Commit; Rollback discards every write, allocations
// included.
type Tx interface {
	Allocator
	Commit() error
	Rollback() error
}

// Ledger is a host backend for the storage allocation capability.
type Ledger interface {
	Begin(ctx context.Context) (Tx, error)
	// Account returns a committed account, or nil when none exists.
	Account(ctx context.Context, addr model.Address) (*model.Account, error)
}
