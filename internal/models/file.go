package models

// File is a protected resource with exactly one owner. OwnerID is
// immutable after creation; ownership transfer is not supported, and the
// owner's rights are never materialised as a grant row.
type File struct {
	BaseModel

	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`

	Name        string `gorm:"not null" json:"name"`
	ContentType string `gorm:"type:varchar(255)" json:"content_type"`
	Size        int64  `json:"size"`

	// StorageKey names the object holding the file bytes in the blob
	// store. It is distinct from the display name so uploads can never
	// collide or traverse paths.
	StorageKey string `gorm:"uniqueIndex;not null" json:"-"`

	Grants []FileGrant `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"grants,omitempty"`
}

// TableName overrides the default table name for GORM.
func (File) TableName() string {
	return "files"
}
