package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/ledger"
	"github.com/unclebandit/crowdfund-program/internal/model"
)

// AccountRepository is a postgres-backed ledger. Each invocation runs in
// one database transaction, and the accounts primary key serializes
// competing allocations of the same address.
type AccountRepository struct {
	DB   *sql.DB
	Rent ledger.Rent
}

var _ ledger.Ledger = (*AccountRepository)(nil)

func (r *AccountRepository) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &accountTx{tx: tx, rent: r.Rent}, nil
}

func (r *AccountRepository) Account(ctx context.Context, addr model.Address) (*model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx, `
        SELECT address, owner, lamports, data
        FROM accounts WHERE address=$1
    `, addr[:]))
}

// Fund credits lamports to a system-owned account, creating it if needed.
func (r *AccountRepository) Fund(ctx context.Context, addr model.Address, lamports uint64) error {
	amount, err := toBigint(lamports)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
        INSERT INTO accounts (address, owner, lamports)
        VALUES ($1, $2, $3)
        ON CONFLICT (address) DO UPDATE
        SET lamports = accounts.lamports + EXCLUDED.lamports, updated_at = NOW()
    `, addr[:], model.SystemProgramID[:], amount)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		addr, owner []byte
		lamports    int64
		acct        model.Account
	)
	err := row.Scan(&addr, &owner, &lamports, &acct.Data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	copy(acct.Address[:], addr)
	copy(acct.Owner[:], owner)
	acct.Lamports = uint64(lamports)
	return &acct, nil
}

type accountTx struct {
	tx   *sql.Tx
	rent ledger.Rent
}

func (t *accountTx) MinimumBalance(ctx context.Context, size int) (uint64, error) {
	return t.rent.MinimumBalance(size), nil
}

func (t *accountTx) Allocate(ctx context.Context, req ledger.AllocateRequest) (ledger.Handle, error) {
	if req.Size < 0 {
		return ledger.Handle{}, fmt.Errorf("negative account size %d", req.Size)
	}
	lamports, err := toBigint(req.Lamports)
	if err != nil {
		return ledger.Handle{}, err
	}

	signed, err := address.CreateProgramAddress(req.Signer.All(), req.Owner)
	if err != nil || signed != req.Address {
		return ledger.Handle{}, ledger.ErrSignerMismatch
	}

	res, err := t.tx.ExecContext(ctx, `
        INSERT INTO accounts (address, owner, lamports, data)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (address) DO NOTHING
    `, req.Address[:], req.Owner[:], lamports, make([]byte, req.Size))
	if err != nil {
		return ledger.Handle{}, fmt.Errorf("inserting account: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return ledger.Handle{}, err
	} else if n == 0 {
		return ledger.Handle{}, fmt.Errorf("address %s: %w", req.Address, ledger.ErrAccountInUse)
	}

	res, err = t.tx.ExecContext(ctx, `
        UPDATE accounts SET lamports = lamports - $1, updated_at = NOW()
        WHERE address=$2 AND lamports >= $1
    `, lamports, req.Payer[:])
	if err != nil {
		return ledger.Handle{}, fmt.Errorf("debiting payer: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return ledger.Handle{}, err
	} else if n == 0 {
		return ledger.Handle{}, fmt.Errorf("payer %s needs %d lamports: %w", req.Payer, req.Lamports, ledger.ErrInsufficientFunds)
	}

	return ledger.Handle{Address: req.Address}, nil
}

func (t *accountTx) Read(ctx context.Context, h ledger.Handle) ([]byte, error) {
	var data []byte
	err := t.tx.QueryRowContext(ctx, `SELECT data FROM accounts WHERE address=$1`, h.Address[:]).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("address %s: %w", h.Address, ledger.ErrUnknownHandle)
		}
		return nil, err
	}
	return data, nil
}

func (t *accountTx) Write(ctx context.Context, h ledger.Handle, data []byte) error {
	current, err := t.Read(ctx, h)
	if err != nil {
		return err
	}
	if len(current) != len(data) {
		return fmt.Errorf("writing %d bytes to %d-byte account: %w", len(data), len(current), ledger.ErrSizeMismatch)
	}
	_, err = t.tx.ExecContext(ctx, `UPDATE accounts SET data=$1, updated_at=NOW() WHERE address=$2`, data, h.Address[:])
	return err
}

func (t *accountTx) Commit() error {
	return mapTxDone(t.tx.Commit())
}

func (t *accountTx) Rollback() error {
	return mapTxDone(t.tx.Rollback())
}

func mapTxDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return ledger.ErrTxDone
	}
	return err
}

func toBigint(lamports uint64) (int64, error) {
	if lamports > math.MaxInt64 {
		return 0, fmt.Errorf("%d lamports exceeds storage range", lamports)
	}
	return int64(lamports), nil
}
