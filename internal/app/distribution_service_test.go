package app

import (
	"context"
	"testing"
	"time"

	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/brickstay/stayhub/internal/events"
	"github.com/stretchr/testify/require"
)

func newDistributor(store *fakeStore, now time.Time, policy DustPolicy) *DistributionService {
	return NewDistributionService(store, store, clock.NewFixed(now), events.NopPublisher{}, seqIDs("dist"), policy, "escrow")
}

func reportTotal(report DistributionReport) int64 {
	sum := report.Fee + report.Dust + report.Escrowed
	for _, p := range report.Payouts {
		sum += p.Amount
	}
	return sum
}

func TestDistributionService_Distribute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	seed := func(t *testing.T, balances map[string]int64, supply int64) *fakeStore {
		t.Helper()
		store := newFakeStore()
		store.assets[1] = domain.Asset{ID: 1, TotalSupply: supply}
		// Insert in a fixed order so the earliest-recorded holder is stable.
		for _, holder := range []string{"alice", "bob", "carol"} {
			if b, ok := balances[holder]; ok {
				require.NoError(t, store.AddToBalance(ctx, 1, holder, b))
			}
		}
		return store
	}

	t.Run("splits proportionally with no remainder", func(t *testing.T) {
		store := seed(t, map[string]int64{"alice": 400, "bob": 300, "carol": 300}, 1000)
		svc := newDistributor(store, now, DustToFeeRecipient)

		report, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 1000})
		require.NoError(t, err)

		require.Equal(t, int64(400), store.wallets["alice"])
		require.Equal(t, int64(300), store.wallets["bob"])
		require.Equal(t, int64(300), store.wallets["carol"])
		require.Zero(t, report.Dust)
		require.Equal(t, int64(1000), reportTotal(report))
		require.Len(t, store.records, 1)
	})

	t.Run("remainder goes to fee recipient", func(t *testing.T) {
		store := seed(t, map[string]int64{"alice": 1, "bob": 1, "carol": 1}, 3)
		svc := newDistributor(store, now, DustToFeeRecipient)

		report, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 100, FeeBps: 0, FeeRecipient: "platform"})
		require.NoError(t, err)

		require.Equal(t, int64(33), store.wallets["alice"])
		require.Equal(t, int64(33), store.wallets["bob"])
		require.Equal(t, int64(33), store.wallets["carol"])
		require.Equal(t, int64(1), report.Dust)
		require.Equal(t, "platform", report.DustRecipient)
		require.Equal(t, int64(1), store.wallets["platform"])
		require.Equal(t, int64(100), reportTotal(report))
	})

	t.Run("remainder goes to earliest holder under first_holder policy", func(t *testing.T) {
		store := seed(t, map[string]int64{"alice": 1, "bob": 1, "carol": 1}, 3)
		svc := newDistributor(store, now, DustToFirstHolder)

		report, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 100})
		require.NoError(t, err)

		require.Equal(t, "alice", report.DustRecipient)
		require.Equal(t, int64(34), store.wallets["alice"])
		require.Equal(t, int64(100), reportTotal(report))
	})

	t.Run("platform fee comes off the top", func(t *testing.T) {
		store := seed(t, map[string]int64{"alice": 600, "bob": 400}, 1000)
		svc := newDistributor(store, now, DustToFeeRecipient)

		report, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 10000, FeeBps: 250, FeeRecipient: "platform"})
		require.NoError(t, err)

		// 2.5% of 10000 is 250; 9750 remains for holders.
		require.Equal(t, int64(250), report.Fee)
		require.Equal(t, int64(5850), store.wallets["alice"])
		require.Equal(t, int64(3900), store.wallets["bob"])
		require.Equal(t, int64(250), store.wallets["platform"])
		require.Equal(t, int64(10000), reportTotal(report))
	})

	t.Run("dust-sized balances still account exactly", func(t *testing.T) {
		store := seed(t, map[string]int64{"alice": 999_999, "bob": 1}, 1_000_000)
		svc := newDistributor(store, now, DustToFeeRecipient)

		report, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 7, FeeBps: 250, FeeRecipient: "platform"})
		require.NoError(t, err)
		require.Equal(t, int64(7), reportTotal(report))
	})

	t.Run("no holders credits escrow", func(t *testing.T) {
		store := newFakeStore()
		store.assets[1] = domain.Asset{ID: 1, TotalSupply: 100}
		svc := newDistributor(store, now, DustToFeeRecipient)

		report, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 500})
		require.ErrorIs(t, err, domain.ErrNoHolders)

		require.Equal(t, int64(500), report.Escrowed)
		require.Equal(t, int64(500), store.escrow[1])
		require.Equal(t, int64(500), store.wallets["escrow"])
		require.Len(t, store.records, 1)
	})

	t.Run("payment failure aborts everything", func(t *testing.T) {
		store := seed(t, map[string]int64{"alice": 600, "bob": 400}, 1000)
		store.failPayments["bob"] = true
		svc := newDistributor(store, now, DustToFeeRecipient)

		_, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 1000})
		require.ErrorIs(t, err, domain.ErrPaymentFailed)

		require.Zero(t, store.wallets["alice"])
		require.Zero(t, store.wallets["bob"])
		require.Empty(t, store.records)
	})

	t.Run("input validation", func(t *testing.T) {
		svc := newDistributor(newFakeStore(), now, DustToFeeRecipient)

		_, err := svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 0})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 10, FeeBps: 10001})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = svc.Distribute(ctx, DistributeInput{AssetID: 1, TotalAmount: 10, FeeBps: 100})
		require.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestParseDustPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseDustPolicy("fee_recipient")
	require.NoError(t, err)
	require.Equal(t, DustToFeeRecipient, p)

	p, err = ParseDustPolicy("first_holder")
	require.NoError(t, err)
	require.Equal(t, DustToFirstHolder, p)

	_, err = ParseDustPolicy("burn")
	require.Error(t, err)
}
