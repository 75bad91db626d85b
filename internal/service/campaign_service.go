// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/codec"
	appErrors "github.com/unclebandit/crowdfund-program/internal/errors"
	"github.com/unclebandit/crowdfund-program/internal/instruction"
	"github.com/unclebandit/crowdfund-program/internal/ledger"
	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/queue"
)

// TopicCampaignCreated carries a CampaignCreatedEvent per committed
// creation.
const TopicCampaignCreated = "campaign_created"

// Positions in the create-campaign account list.
const (
	accountRequester = iota
	accountCampaign
	accountAllocator
	createCampaignAccounts
)

type CampaignService struct {
	ProgramID model.Address
	Deriver   address.Deriver
	Ledger    ledger.Ledger
	Queue     queue.Queue
	Logger    *zap.Logger
	Now       func() time.Time
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *CampaignService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Process runs one invocation: decode, dispatch, and commit or roll back
// everything the instruction wrote.
func (s *CampaignService) Process(ctx context.Context, accounts []model.AccountMeta, data []byte) error {
	ix, err := instruction.Decode(data)
	if err != nil {
		return err
	}

	tx, err := s.Ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning ledger transaction: %w", err)
	}
	defer tx.Rollback()

	switch ix.Opcode {
	case instruction.OpCreateCampaign:
		record, err := s.CreateCampaign(ctx, tx, accounts, *ix.CreateCampaign)
		if err != nil {
			s.logger().Info("create campaign rejected", zap.Error(err))
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing ledger transaction: %w", err)
		}
		s.publishCreated(accounts[accountCampaign].Address, record)
		return nil
	default:
		return appErrors.New(appErrors.UnsupportedOpcode, "opcode %d", ix.Opcode)
	}
}

// CreateCampaign allocates and initializes the campaign account of the
// requester. Only the allocation and the final write touch alloc, so any
// failure before step 4 leaves no trace even without a transaction.
func (s *CampaignService) CreateCampaign(
	ctx context.Context,
	alloc ledger.Allocator,
	accounts []model.AccountMeta,
	payload model.CreateCampaignPayload,
) (*model.CampaignRecord, error) {
	if len(accounts) < createCampaignAccounts {
		return nil, appErrors.New(appErrors.MalformedInstruction,
			"create campaign needs %d accounts, got %d", createCampaignAccounts, len(accounts))
	}
	requester := accounts[accountRequester]
	target := accounts[accountCampaign]
	if !target.IsWritable {
		return nil, appErrors.New(appErrors.MalformedInstruction, "campaign account %s is not writable", target.Address)
	}
	if accounts[accountAllocator].Address != model.SystemProgramID {
		return nil, appErrors.New(appErrors.MalformedInstruction,
			"account %d is %s, want the storage allocation service", accountAllocator, accounts[accountAllocator].Address)
	}

	// 1. authorization
	if !requester.IsSigner {
		return nil, appErrors.New(appErrors.MissingAuthorization, "requester %s did not sign", requester.Address)
	}

	// 2. address derivation
	derived, bump, err := s.Deriver.Derive([]byte(address.CampaignSeed), requester.Address, s.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("deriving campaign address: %w", err)
	}
	if derived != target.Address {
		return nil, appErrors.New(appErrors.AddressMismatch,
			"campaign account is %s, derived %s", target.Address, derived)
	}

	// 3. quota
	lamports, err := alloc.MinimumBalance(ctx, codec.RecordSize)
	if err != nil {
		return nil, fmt.Errorf("quoting minimum balance: %w", err)
	}

	// 4. allocation
	s.logger().Debug("allocating campaign account",
		zap.Stringer("address", derived),
		zap.Uint64("lamports", lamports))
	handle, err := alloc.Allocate(ctx, ledger.AllocateRequest{
		Payer:    requester.Address,
		Address:  derived,
		Size:     codec.RecordSize,
		Owner:    s.ProgramID,
		Lamports: lamports,
		Signer: ledger.SignerSeeds{
			Seeds: address.CampaignSeeds(requester.Address),
			Bump:  bump,
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(appErrors.AllocationFailed, err, "allocating campaign account")
	}

	// 5. initialization guard
	raw, err := alloc.Read(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("reading campaign account: %w", err)
	}
	record, err := codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	if record.Initialized {
		return nil, appErrors.New(appErrors.AlreadyInitialized, "campaign account %s", derived)
	}

	// 6. populate and persist
	record = model.CampaignRecord{
		Initialized: true,
		Name:        payload.Name,
		Creator:     requester.Address,
		GoalAmount:  payload.GoalAmount,
		Deadline:    payload.Deadline,
		Bump:        bump,
	}
	if err := codec.EncodeInto(raw, record); err != nil {
		return nil, err
	}
	if err := alloc.Write(ctx, handle, raw); err != nil {
		return nil, fmt.Errorf("writing campaign account: %w", err)
	}

	s.logger().Info("campaign created",
		zap.Stringer("address", derived),
		zap.Stringer("creator", requester.Address),
		zap.Uint64("goal_amount", payload.GoalAmount),
		zap.Int64("deadline", payload.Deadline))
	return &record, nil
}

func (s *CampaignService) publishCreated(addr model.Address, record *model.CampaignRecord) {
	if s.Queue == nil {
		return
	}
	event := model.CampaignCreatedEvent{
		Address:    addr,
		Creator:    record.Creator,
		Name:       record.Name,
		GoalAmount: record.GoalAmount,
		Deadline:   record.Deadline,
		Bump:       record.Bump,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.Queue.Publish(TopicCampaignCreated, event); err != nil {
		s.logger().Warn("failed to publish campaign event",
			zap.Stringer("address", addr), zap.Error(err))
	}
}

// CampaignAddress derives the campaign address of creator.
func (s *CampaignService) CampaignAddress(creator model.Address) (model.Address, uint8, error) {
	return s.Deriver.Derive([]byte(address.CampaignSeed), creator, s.ProgramID)
}

// GetCampaign loads the committed campaign of creator.
func (s *CampaignService) GetCampaign(ctx context.Context, creator model.Address) (*model.CampaignRecord, model.Address, error) {
	addr, _, err := s.CampaignAddress(creator)
	if err != nil {
		return nil, model.Address{}, fmt.Errorf("deriving campaign address: %w", err)
	}

	acct, err := s.Ledger.Account(ctx, addr)
	if err != nil {
		return nil, addr, fmt.Errorf("loading account %s: %w", addr, err)
	}
	if acct == nil || acct.Owner != s.ProgramID {
		return nil, addr, appErrors.NewCampaignNotFound(creator.String())
	}

	record, err := codec.Decode(acct.Data)
	if err != nil {
		return nil, addr, err
	}
	if !record.Initialized {
		return nil, addr, appErrors.NewCampaignNotFound(creator.String())
	}
	return &record, addr, nil
}

// IsNotFound reports whether err is a missing-campaign lookup failure.
func IsNotFound(err error) bool {
	var notFound *appErrors.ErrCampaignNotFound
	return errors.As(err, &notFound)
}

// Retryable reports whether a failed invocation may succeed when run
// again. Program errors are final, except allocation failures whose cause
// is not a refusal by the ledger, such as a dropped connection or a
// cancelled context.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case !appErrors.IsProgramError(err):
		return true
	case appErrors.KindOf(err) == appErrors.AllocationFailed:
		return !errors.Is(err, ledger.ErrAccountInUse) &&
			!errors.Is(err, ledger.ErrInsufficientFunds) &&
			!errors.Is(err, ledger.ErrSignerMismatch)
	default:
		return false
	}
}
