package models

// FileGrant stores a single graded right for a non-owner principal on a
// file. The composite unique index keeps one row per (file, user) pair;
// re-granting replaces the row instead of duplicating it. Level holds the
// ordered enum representation ("read", "write" or "delete"); rights are
// never stored as independent booleans.
type FileGrant struct {
	BaseModel

	FileID string `gorm:"type:uuid;not null;uniqueIndex:idx_file_grant_pair,priority:1" json:"file_id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_file_grant_pair,priority:2" json:"user_id"`
	Level  string `gorm:"type:varchar(16);not null" json:"level"`
}

// TableName overrides the default table name for GORM.
func (FileGrant) TableName() string {
	return "file_grants"
}
