// internal/ledger/memory.go
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/model"
)

// MemoryLedger is an in-process ledger. Transactions run one at a time:
// Begin waits until the previous transaction commits or rolls back.
type MemoryLedger struct {
	rent Rent
	sem  chan struct{}

	mu       sync.RWMutex
	accounts map[model.Address]*model.Account
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger quoting balances from rent.
func NewMemoryLedger(rent Rent) *MemoryLedger {
	return &MemoryLedger{
		rent:     rent,
		sem:      make(chan struct{}, 1),
		accounts: make(map[model.Address]*model.Account),
	}
}

// Fund credits lamports to a system-owned account, creating it if
// needed. It is how payers get a balance.
func (l *MemoryLedger) Fund(addr model.Address, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[addr]
	if !ok {
		acct = &model.Account{Address: addr, Owner: model.SystemProgramID}
		l.accounts[addr] = acct
	}
	acct.Lamports += lamports
}

func (l *MemoryLedger) Account(ctx context.Context, addr model.Address) (*model.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[addr]
	if !ok {
		return nil, nil
	}
	return cloneAccount(acct), nil
}

func (l *MemoryLedger) Begin(ctx context.Context) (Tx, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for ledger: %w", ctx.Err())
	}
	return &memoryTx{
		ledger: l,
		staged: make(map[model.Address]*model.Account),
	}, nil
}

type memoryTx struct {
	ledger *MemoryLedger
	staged map[model.Address]*model.Account
	done   bool
}

// get returns a private copy of the account as this transaction sees it.
func (tx *memoryTx) get(addr model.Address) *model.Account {
	if acct, ok := tx.staged[addr]; ok {
		return acct
	}
	tx.ledger.mu.RLock()
	defer tx.ledger.mu.RUnlock()
	acct, ok := tx.ledger.accounts[addr]
	if !ok {
		return nil
	}
	return cloneAccount(acct)
}

func (tx *memoryTx) MinimumBalance(ctx context.Context, size int) (uint64, error) {
	return tx.ledger.rent.MinimumBalance(size), nil
}

func (tx *memoryTx) Allocate(ctx context.Context, req AllocateRequest) (Handle, error) {
	if tx.done {
		return Handle{}, ErrTxDone
	}
	if req.Size < 0 {
		return Handle{}, fmt.Errorf("negative account size %d", req.Size)
	}

	signed, err := address.CreateProgramAddress(req.Signer.All(), req.Owner)
	if err != nil || signed != req.Address {
		return Handle{}, ErrSignerMismatch
	}

	if existing := tx.get(req.Address); inUse(existing) {
		return Handle{}, fmt.Errorf("address %s: %w", req.Address, ErrAccountInUse)
	}

	payer := tx.get(req.Payer)
	if payer == nil || payer.Lamports < req.Lamports {
		var have uint64
		if payer != nil {
			have = payer.Lamports
		}
		return Handle{}, fmt.Errorf("payer %s has %d lamports, needs %d: %w",
			req.Payer, have, req.Lamports, ErrInsufficientFunds)
	}
	payer.Lamports -= req.Lamports
	tx.staged[req.Payer] = payer

	tx.staged[req.Address] = &model.Account{
		Address:  req.Address,
		Owner:    req.Owner,
		Lamports: req.Lamports,
		Data:     make([]byte, req.Size),
	}
	return Handle{Address: req.Address}, nil
}

func (tx *memoryTx) Read(ctx context.Context, h Handle) ([]byte, error) {
	acct := tx.get(h.Address)
	if acct == nil {
		return nil, fmt.Errorf("address %s: %w", h.Address, ErrUnknownHandle)
	}
	return append([]byte(nil), acct.Data...), nil
}

func (tx *memoryTx) Write(ctx context.Context, h Handle, data []byte) error {
	if tx.done {
		return ErrTxDone
	}
	acct := tx.get(h.Address)
	if acct == nil {
		return fmt.Errorf("address %s: %w", h.Address, ErrUnknownHandle)
	}
	if len(data) != len(acct.Data) {
		return fmt.Errorf("writing %d bytes to %d-byte account: %w", len(data), len(acct.Data), ErrSizeMismatch)
	}
	acct.Data = append([]byte(nil), data...)
	tx.staged[h.Address] = acct
	return nil
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.ledger.mu.Lock()
	for addr, acct := range tx.staged {
		tx.ledger.accounts[addr] = acct
	}
	tx.ledger.mu.Unlock()
	tx.finish()
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	tx.staged = nil
	tx.finish()
	return nil
}

func (tx *memoryTx) finish() {
	tx.done = true
	<-tx.ledger.sem
}

// inUse mirrors the allocation rule of the ledger: any balance, data or
// non-system owner means the address is taken.
func inUse(acct *model.Account) bool {
	if acct == nil {
		return false
	}
	return acct.Lamports > 0 || len(acct.Data) > 0 || acct.Owner != model.SystemProgramID
}

func cloneAccount(acct *model.Account) *model.Account {
	c := *acct
	c.Data = append([]byte(nil), acct.Data...)
	return &c
}
