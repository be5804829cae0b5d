package domain

const (
	// ZeroAddress marks mints (from) and burns (to) in share transfers
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// USDC is watched for transfer ticks that piggyback snapshot runs
	USDCAddress = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

	// CanonicalDecimals is the fixed-point scale all aggregated asset
	// amounts are normalized to
	CanonicalDecimals = 18

	// SnapshotIntervalSecs is the platform-wide cooldown between
	// snapshot runs triggered by chain head ticks
	SnapshotIntervalSecs = 300

	// BucketCooldownSecs is the per-bucket cooldown between snapshot
	// writes to the same hour bucket
	BucketCooldownSecs = 60

	// SnapshotWindowSecs is the length of the end-of-hour window in
	// which head ticks are allowed to trigger a snapshot run
	SnapshotWindowSecs = 45

	SecondsPerHour = 60 * 60
	SecondsPerDay  = 60 * 60 * 24
)
