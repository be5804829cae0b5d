package engine

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
)

const (
	hourStart = int64(1664805600)
	// inside the 45 second end-of-hour window
	windowTs = hourStart + 3590
)

func TestWithinSnapshotWindow(t *testing.T) {
	assert.False(t, withinSnapshotWindow(hourStart))
	assert.False(t, withinSnapshotWindow(hourStart+1800))
	assert.False(t, withinSnapshotWindow(hourStart+3554))
	assert.True(t, withinSnapshotWindow(hourStart+3555))
	assert.True(t, withinSnapshotWindow(hourStart+3599))
}

func TestBlockTickSnapshot(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	f.vault.totalAssets = usdc(110)
	f.vault.shareValue = big.NewInt(1_050_000) // 1.05 USDC per share
	f.vault.positions = []string{testUSDC}
	f.erc20.setBalance(testUSDC, testCellar, usdc(40))

	f.handle(t, blockTickEvent(300, windowTs))

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, hourStart))
	require.NoError(t, err)
	require.NotNil(t, hour)
	assert.Equal(t, canonical(70).String(), hour.TvlActive.String())
	assert.Equal(t, canonical(40).String(), hour.TvlInactive.String())
	assert.Equal(t, canonical(110).String(), hour.TvlTotal.String())
	assert.Equal(t, "1050000", hour.ShareValue.String())
	assert.Equal(t, "1050000", hour.ShareValueLow.String())
	assert.Equal(t, "1050000", hour.ShareValueHigh.String())
	assert.Equal(t, "0.05", hour.ShareProfitRatio.String())
	assert.Equal(t, windowTs, hour.UpdatedAt)
	// no previous bucket to measure yield against
	assert.True(t, hour.Earnings.IsZero())

	day, err := f.store.GetCellarDayData(ctx, entities.BucketID(testCellar, testUSDC, entities.DayStart(windowTs)))
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Equal(t, canonical(70).String(), day.TvlActive.String())
	assert.Equal(t, "1050000", day.ShareValue.String())

	cellar, err := f.store.GetCellar(ctx, testCellar)
	require.NoError(t, err)
	assert.Equal(t, canonical(70).String(), cellar.TvlActive.String())
	assert.Equal(t, canonical(110).String(), cellar.TvlTotal.String())
	require.NotNil(t, cellar.ShareValue)
	assert.Equal(t, "1050000", cellar.ShareValue.String())
	assert.Equal(t, []string{testUSDC}, cellar.Positions)

	platform, err := f.store.GetPlatform(ctx)
	require.NoError(t, err)
	require.NotNil(t, platform)
	assert.Equal(t, windowTs, platform.LatestSnapshotUpdatedAt)
	assert.Equal(t, int64(300), platform.LatestSnapshotUpdatedAtBlock)

	// observed active diverged from the event-tracked 100
	change, err := f.store.GetBalanceChange(ctx, entities.BalanceChangeID(300, testCellar))
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, new(big.Int).Neg(canonical(30)).String(), change.Amount.String())
}

func TestBlockTickOutsideWindowIsNoop(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))
	f.handle(t, blockTickEvent(300, hourStart+1800))

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, hourStart))
	require.NoError(t, err)
	assert.Equal(t, int64(0), hour.UpdatedAt)

	platform, err := f.store.GetPlatform(ctx)
	require.NoError(t, err)
	assert.Nil(t, platform)
}

func TestBlockTickPlatformCooldown(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	first := hourStart + 3560
	f.handle(t, blockTickEvent(300, first))
	f.handle(t, blockTickEvent(301, first+10))

	platform, err := f.store.GetPlatform(ctx)
	require.NoError(t, err)
	require.NotNil(t, platform)
	assert.Equal(t, first, platform.LatestSnapshotUpdatedAt)
	assert.Equal(t, int64(300), platform.LatestSnapshotUpdatedAtBlock)
}

func TestSnapshotTickBypassesWindowButHonorsBucketCooldown(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	f.vault.totalAssets = usdc(100)
	first := hourStart + 200 // mid-hour
	f.handle(t, snapshotTickEvent(300, first))

	hourID := entities.BucketID(testCellar, testUSDC, hourStart)
	hour, err := f.store.GetCellarHourData(ctx, hourID)
	require.NoError(t, err)
	assert.Equal(t, first, hour.UpdatedAt)

	// within the bucket cooldown nothing moves
	f.vault.totalAssets = usdc(150)
	f.handle(t, snapshotTickEvent(301, first+30))

	hour, err = f.store.GetCellarHourData(ctx, hourID)
	require.NoError(t, err)
	assert.Equal(t, first, hour.UpdatedAt)
	assert.Equal(t, canonical(100).String(), hour.TvlActive.String())

	// past the cooldown the new total lands
	f.handle(t, snapshotTickEvent(302, first+70))

	hour, err = f.store.GetCellarHourData(ctx, hourID)
	require.NoError(t, err)
	assert.Equal(t, first+70, hour.UpdatedAt)
	assert.Equal(t, canonical(150).String(), hour.TvlActive.String())
}

func TestEarningsAcrossHours(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	f.vault.totalAssets = usdc(100)
	f.handle(t, snapshotTickEvent(300, hourStart+200))

	// the vault gained 5 by the next hour
	f.vault.totalAssets = usdc(105)
	secondHour := hourStart + domain.SecondsPerHour
	f.handle(t, snapshotTickEvent(400, secondHour+200))

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, secondHour))
	require.NoError(t, err)
	require.NotNil(t, hour)
	assert.Equal(t, canonical(5).String(), hour.Earnings.String())

	// a loss clamps to zero instead of reporting negative yield
	f.vault.totalAssets = usdc(95)
	thirdHour := secondHour + domain.SecondsPerHour
	f.handle(t, snapshotTickEvent(500, thirdHour+200))

	hour, err = f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, thirdHour))
	require.NoError(t, err)
	assert.True(t, hour.Earnings.IsZero())
}

func TestActiveReadRevertDegrades(t *testing.T) {
	f := newFixture(t, domain.GenerationV1)
	ctx := context.Background()

	f.handle(t, &domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindAddLiquidity,
		Cellar:    testCellar,
		Wallet:    testWallet,
		Token:     testUSDC,
		Amount:    usdc(40),
		TxHash:    "0xadd",
		Block:     200,
		Timestamp: time.Unix(hourStart+100, 0),
	})

	f.vault.totalAssetsErr = chain.ErrReverted
	f.vault.totalHoldings = usdc(40)
	f.vault.shareValueErr = chain.ErrReverted
	f.handle(t, snapshotTickEvent(300, hourStart+200))

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, hourStart))
	require.NoError(t, err)
	require.NotNil(t, hour)
	assert.True(t, hour.TvlActive.IsZero())
	assert.True(t, hour.Earnings.IsZero())
	assert.Equal(t, canonical(40).String(), hour.TvlInactive.String())
	// the share value read failed so the candle stays unseeded
	assert.Equal(t, "-1", hour.ShareValueLow.String())
}

func TestRevertedActiveReadRecordsNoBalanceChange(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	// the revert carries no observation, so the zeroed default must not
	// read as a 100 USDC loss
	f.vault.totalAssetsErr = chain.ErrReverted
	f.handle(t, snapshotTickEvent(300, hourStart+200))

	change, err := f.store.GetBalanceChange(ctx, entities.BalanceChangeID(300, testCellar))
	require.NoError(t, err)
	assert.Nil(t, change)

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, hourStart))
	require.NoError(t, err)
	assert.True(t, hour.TvlActive.IsZero())
	assert.True(t, hour.Earnings.IsZero())
}

func TestCandleWidensWithinHour(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	f.vault.totalAssets = usdc(100)
	f.vault.shareValue = big.NewInt(1_050_000)
	f.handle(t, snapshotTickEvent(300, hourStart+200))

	f.vault.shareValue = big.NewInt(1_020_000)
	f.handle(t, snapshotTickEvent(301, hourStart+300))

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, hourStart))
	require.NoError(t, err)
	assert.Equal(t, "1020000", hour.ShareValueLow.String())
	assert.Equal(t, "1050000", hour.ShareValueHigh.String())
	assert.Equal(t, "1020000", hour.ShareValue.String())
}

func TestSnapshotSkipsCellarBeforeStartBlock(t *testing.T) {
	f := newFixture(t, domain.GenerationV1_5)
	f.vault.holdingAsset = testUSDC
	ctx := context.Background()

	f.handle(t, depositEvent(testWallet, usdc(100), hourStart+100))

	// registry start block is 100
	f.handle(t, snapshotTickEvent(50, hourStart+200))

	hour, err := f.store.GetCellarHourData(ctx, entities.BucketID(testCellar, testUSDC, hourStart))
	require.NoError(t, err)
	assert.Equal(t, int64(0), hour.UpdatedAt)
}
