package schema

// PlatformID is the fixed primary key of the Platform singleton row
const PlatformID = "platform"

// Platform is a singleton holding the global snapshot throttle state
type Platform struct {
	ID string `gorm:"column:id;primaryKey;type:text"`

	// LatestSnapshotUpdatedAt is the epoch-second stamp of the last
	// completed snapshot run, zero if none has run yet
	LatestSnapshotUpdatedAt int64 `gorm:"column:latest_snapshot_updated_at;not null"`
	// LatestSnapshotUpdatedAtBlock is the block that triggered that run
	LatestSnapshotUpdatedAtBlock int64 `gorm:"column:latest_snapshot_updated_at_block;not null"`
}

// TableName specifies the table name for the Platform model
func (Platform) TableName() string {
	return "platform"
}
