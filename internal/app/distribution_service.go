package app

import (
	"context"
	"fmt"

	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/brickstay/stayhub/internal/events"
)

type DistributionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetAssetForUpdate(ctx context.Context, assetID int64) (domain.Asset, error)
	ListHoldings(ctx context.Context, assetID int64) ([]domain.Holding, error)
	RecordDistribution(ctx context.Context, rec domain.Distribution) error
	CreditEscrow(ctx context.Context, assetID int64, amount int64) error
}

// DustPolicy names the recipient of the floor-division remainder.
type DustPolicy string

const (
	DustToFeeRecipient DustPolicy = "fee_recipient"
	DustToFirstHolder  DustPolicy = "first_holder"
)

func ParseDustPolicy(s string) (DustPolicy, error) {
	switch DustPolicy(s) {
	case DustToFeeRecipient, DustToFirstHolder:
		return DustPolicy(s), nil
	}
	return "", fmt.Errorf("unknown dust policy %q", s)
}

type Payout struct {
	Holder string
	Amount int64
}

// DistributionReport accounts for every unit of an incoming payment.
// Fee + sum(Payouts) + Dust + Escrowed always equals the total amount.
type DistributionReport struct {
	AssetID       int64
	TotalAmount   int64
	Fee           int64
	FeeRecipient  string
	Payouts       []Payout
	Dust          int64
	DustRecipient string
	Escrowed      int64
}

// DistributionService splits rental revenue across an asset's holders in
// proportion to balance, with deterministic floor rounding.
type DistributionService struct {
	repo          DistributionRepository
	payer         Payer
	clock         clock.Clock
	publisher     events.Publisher
	newID         IDGenerator
	dustPolicy    DustPolicy
	escrowAccount string
}

func NewDistributionService(repo DistributionRepository, payer Payer, clk clock.Clock, pub events.Publisher, newID IDGenerator, dustPolicy DustPolicy, escrowAccount string) *DistributionService {
	return &DistributionService{
		repo:          repo,
		payer:         payer,
		clock:         clk,
		publisher:     pub,
		newID:         newID,
		dustPolicy:    dustPolicy,
		escrowAccount: escrowAccount,
	}
}

type DistributeInput struct {
	AssetID      int64
	TotalAmount  int64
	FeeBps       int64
	FeeRecipient string
}

// Distribute pays out TotalAmount across all positive holders. Shares use
// integer floor division; the remainder goes to the dust-policy recipient so
// outgoing payments sum exactly to TotalAmount. Any payment failure aborts
// the whole distribution. When the asset has no positive holders the amount
// is credited to the escrow pool and ErrNoHolders is returned.
func (s *DistributionService) Distribute(ctx context.Context, in DistributeInput) (DistributionReport, error) {
	if in.TotalAmount <= 0 {
		return DistributionReport{}, domain.ErrInvalidAmount
	}
	if in.FeeBps < 0 || in.FeeBps > 10000 {
		return DistributionReport{}, domain.ErrInvalidAmount
	}
	if in.FeeBps > 0 && in.FeeRecipient == "" {
		return DistributionReport{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	report := DistributionReport{
		AssetID:      in.AssetID,
		TotalAmount:  in.TotalAmount,
		FeeRecipient: in.FeeRecipient,
	}
	var noHolders bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		asset, err := s.repo.GetAssetForUpdate(txCtx, in.AssetID)
		if err != nil {
			return err
		}

		holdings, err := s.repo.ListHoldings(txCtx, in.AssetID)
		if err != nil {
			return err
		}
		if len(holdings) == 0 || asset.TotalSupply == 0 {
			noHolders = true
			report.Escrowed = in.TotalAmount
			if err := s.payer.Pay(txCtx, s.escrowAccount, in.TotalAmount); err != nil {
				return fmt.Errorf("%w: escrow %s: %v", domain.ErrPaymentFailed, s.escrowAccount, err)
			}
			if err := s.repo.CreditEscrow(txCtx, in.AssetID, in.TotalAmount); err != nil {
				return err
			}
			return s.repo.RecordDistribution(txCtx, domain.Distribution{
				ID:          s.newID(),
				AssetID:     in.AssetID,
				TotalAmount: in.TotalAmount,
				FeeBps:      in.FeeBps,
				Escrowed:    in.TotalAmount,
				CreatedAt:   now,
			})
		}

		fee := in.TotalAmount * in.FeeBps / 10000
		distributable := in.TotalAmount - fee

		var paidSoFar int64
		for _, h := range holdings {
			share := distributable * h.Balance / asset.TotalSupply
			if share == 0 {
				continue
			}
			if err := s.payer.Pay(txCtx, h.Holder, share); err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrPaymentFailed, h.Holder, err)
			}
			report.Payouts = append(report.Payouts, Payout{Holder: h.Holder, Amount: share})
			paidSoFar += share
		}

		dust := distributable - paidSoFar
		dustRecipient := in.FeeRecipient
		if s.dustPolicy == DustToFirstHolder || dustRecipient == "" {
			dustRecipient = holdings[0].Holder
		}
		if dust > 0 {
			if err := s.payer.Pay(txCtx, dustRecipient, dust); err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrPaymentFailed, dustRecipient, err)
			}
		}
		if fee > 0 {
			if err := s.payer.Pay(txCtx, in.FeeRecipient, fee); err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrPaymentFailed, in.FeeRecipient, err)
			}
		}

		report.Fee = fee
		report.Dust = dust
		report.DustRecipient = dustRecipient

		return s.repo.RecordDistribution(txCtx, domain.Distribution{
			ID:            s.newID(),
			AssetID:       in.AssetID,
			TotalAmount:   in.TotalAmount,
			FeeBps:        in.FeeBps,
			Fee:           fee,
			Dust:          dust,
			DustRecipient: dustRecipient,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return DistributionReport{}, err
	}
	if noHolders {
		return report, domain.ErrNoHolders
	}

	eventPayouts := make([]events.Payout, 0, len(report.Payouts))
	for _, p := range report.Payouts {
		eventPayouts = append(eventPayouts, events.Payout{Holder: p.Holder, Amount: p.Amount})
	}
	_ = s.publisher.Publish(ctx, events.KeyDistributed, events.Distributed{
		AssetID:     in.AssetID,
		TotalAmount: in.TotalAmount,
		Fee:         report.Fee,
		Dust:        report.Dust,
		Payouts:     eventPayouts,
		At:          now,
	})
	return report, nil
}
