package app

import (
	"context"
	"sync"

	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/brickstay/stayhub/internal/events"
)

type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateAsset(ctx context.Context, asset domain.Asset) error
	GetAsset(ctx context.Context, assetID int64) (domain.Asset, error)
	GetAssetForUpdate(ctx context.Context, assetID int64) (domain.Asset, error)
	GetBalance(ctx context.Context, assetID int64, holder string) (int64, error)
	AddToBalance(ctx context.Context, assetID int64, holder string, delta int64) error
	ListHoldings(ctx context.Context, assetID int64) ([]domain.Holding, error)
	TopHolder(ctx context.Context, assetID int64) (domain.Holding, bool, error)
	HoldingsOf(ctx context.Context, holder string) ([]domain.Holding, error)
}

// OwnershipChangeHandler is invoked inside the transfer transaction whenever
// the majority holder of an asset changes. The booking calendar registers
// itself here to sweep the previous majority's listings.
type OwnershipChangeHandler interface {
	OnOwnershipChanged(ctx context.Context, assetID int64, previous, next string) error
}

// LedgerService owns per-asset fractional balances and answers majority
// holder queries. The leaders map is a read-path accelerator only: transfer
// decisions always read the leader from storage under the asset row lock,
// and every transfer invalidates the cached entry for its asset.
type LedgerService struct {
	repo      LedgerRepository
	clock     clock.Clock
	publisher events.Publisher
	handler   OwnershipChangeHandler

	mu      sync.Mutex
	leaders map[int64]domain.Holding
}

func NewLedgerService(repo LedgerRepository, clk clock.Clock, pub events.Publisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		clock:     clk,
		publisher: pub,
		leaders:   make(map[int64]domain.Holding),
	}
}

// SetOwnershipChangeHandler wires the listing sweep callback. Called once by
// the orchestrator; avoids a compile-time cycle between ledger and calendar.
func (s *LedgerService) SetOwnershipChangeHandler(h OwnershipChangeHandler) {
	s.handler = h
}

type InitializeAssetInput struct {
	AssetID     int64
	Creator     string
	TotalSupply int64
	MetadataURI string
}

// InitializeAsset records a new asset and credits its entire supply to the
// creator. The supply is immutable afterwards.
func (s *LedgerService) InitializeAsset(ctx context.Context, in InitializeAssetInput) (domain.Asset, error) {
	if in.TotalSupply <= 0 {
		return domain.Asset{}, domain.ErrInvalidAmount
	}
	if in.AssetID <= 0 || in.Creator == "" {
		return domain.Asset{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	asset := domain.Asset{
		ID:          in.AssetID,
		TotalSupply: in.TotalSupply,
		MetadataURI: in.MetadataURI,
		CreatedAt:   now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateAsset(txCtx, asset); err != nil {
			return err
		}
		return s.repo.AddToBalance(txCtx, in.AssetID, in.Creator, in.TotalSupply)
	})
	if err != nil {
		return domain.Asset{}, err
	}

	_ = s.publisher.Publish(ctx, events.KeyAssetInitialized, events.AssetInitialized{
		AssetID:     in.AssetID,
		Creator:     in.Creator,
		TotalSupply: in.TotalSupply,
		At:          now,
	})
	return asset, nil
}

type TransferInput struct {
	AssetID int64
	From    string
	To      string
	Amount  int64
}

// Transfer moves ownership units between two holders. The sum of holdings is
// preserved. When the transfer changes which holder has the largest balance,
// the registered ownership-change handler runs inside the same transaction
// and an OwnershipChanged event is published after commit.
func (s *LedgerService) Transfer(ctx context.Context, in TransferInput) error {
	if in.Amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if in.From == "" || in.To == "" || in.From == in.To {
		return domain.ErrInvalidID
	}

	var prev, next domain.Holding
	var changed bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Locks the asset row: all mutations of one asset serialize here.
		if _, err := s.repo.GetAssetForUpdate(txCtx, in.AssetID); err != nil {
			return err
		}

		fromBalance, err := s.repo.GetBalance(txCtx, in.AssetID, in.From)
		if err != nil {
			return err
		}
		if fromBalance < in.Amount {
			return domain.ErrInsufficientBalance
		}

		// The previous leader must come from storage under the row lock;
		// the cache may lag other writers and is never consulted here.
		var found bool
		prev, found, err = s.repo.TopHolder(txCtx, in.AssetID)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNoHolders
		}

		if err := s.repo.AddToBalance(txCtx, in.AssetID, in.From, -in.Amount); err != nil {
			return err
		}
		if err := s.repo.AddToBalance(txCtx, in.AssetID, in.To, in.Amount); err != nil {
			return err
		}

		// The leader can only move if one of the parties held it, or the
		// receiver's new balance overtakes it. Otherwise skip the rescan.
		if in.From == prev.Holder || in.To == prev.Holder {
			next, _, err = s.repo.TopHolder(txCtx, in.AssetID)
			if err != nil {
				return err
			}
		} else {
			toBalance, err := s.repo.GetBalance(txCtx, in.AssetID, in.To)
			if err != nil {
				return err
			}
			if toBalance >= prev.Balance {
				next, _, err = s.repo.TopHolder(txCtx, in.AssetID)
				if err != nil {
					return err
				}
			} else {
				next = prev
			}
		}

		changed = next.Holder != prev.Holder
		if changed && s.handler != nil {
			if err := s.handler.OnOwnershipChanged(txCtx, in.AssetID, prev.Holder, next.Holder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Invalidate rather than overwrite: another transfer may have committed
	// since ours, and its leader would be clobbered by a stale store.
	s.invalidateLeader(in.AssetID)
	if changed {
		_ = s.publisher.Publish(ctx, events.KeyOwnershipChanged, events.OwnershipChanged{
			AssetID:          in.AssetID,
			PreviousMajority: prev.Holder,
			NewMajority:      next.Holder,
			At:               s.clock.Now(),
		})
	}
	return nil
}

// BalanceOf reports a holder's balance; absent holders have balance zero.
func (s *LedgerService) BalanceOf(ctx context.Context, assetID int64, holder string) (int64, error) {
	if _, err := s.repo.GetAsset(ctx, assetID); err != nil {
		return 0, err
	}
	return s.repo.GetBalance(ctx, assetID, holder)
}

// TotalSupply reports the asset's fixed supply.
func (s *LedgerService) TotalSupply(ctx context.Context, assetID int64) (int64, error) {
	asset, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return asset.TotalSupply, nil
}

// MajorityHolder returns the holder with the strictly largest balance. Ties
// resolve to the earliest-recorded holder. Served from the leader cache when
// possible; the cache may briefly lag a concurrent transfer, so writers use
// CurrentMajorityHolder instead.
func (s *LedgerService) MajorityHolder(ctx context.Context, assetID int64) (domain.Holding, error) {
	if _, err := s.repo.GetAsset(ctx, assetID); err != nil {
		return domain.Holding{}, err
	}

	s.mu.Lock()
	leader, ok := s.leaders[assetID]
	s.mu.Unlock()
	if ok {
		return leader, nil
	}

	leader, found, err := s.repo.TopHolder(ctx, assetID)
	if err != nil {
		return domain.Holding{}, err
	}
	if !found {
		return domain.Holding{}, domain.ErrNoHolders
	}
	s.storeLeader(leader)
	return leader, nil
}

// CurrentMajorityHolder is the authoritative, cache-bypassing variant used
// by other services inside their own transactions.
func (s *LedgerService) CurrentMajorityHolder(ctx context.Context, assetID int64) (domain.Holding, error) {
	leader, found, err := s.repo.TopHolder(ctx, assetID)
	if err != nil {
		return domain.Holding{}, err
	}
	if !found {
		return domain.Holding{}, domain.ErrNoHolders
	}
	return leader, nil
}

// HoldingsOf lists every holding of one identity across assets.
func (s *LedgerService) HoldingsOf(ctx context.Context, holder string) ([]domain.Holding, error) {
	return s.repo.HoldingsOf(ctx, holder)
}

// Holdings lists an asset's positive holdings in recorded order.
func (s *LedgerService) Holdings(ctx context.Context, assetID int64) ([]domain.Holding, error) {
	if _, err := s.repo.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.repo.ListHoldings(ctx, assetID)
}

func (s *LedgerService) invalidateLeader(assetID int64) {
	s.mu.Lock()
	delete(s.leaders, assetID)
	s.mu.Unlock()
}

func (s *LedgerService) storeLeader(leader domain.Holding) {
	if leader.Holder == "" {
		return
	}
	s.mu.Lock()
	s.leaders[leader.AssetID] = leader
	s.mu.Unlock()
}
