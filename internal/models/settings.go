package models

import "time"

type UserSetting struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_setting_key,unique;not null"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Key       string `gorm:"size:100;index:idx_user_setting_key,unique;not null"`
	Value     string `gorm:"size:1000"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SystemSetting struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"size:100;uniqueIndex;not null"`
	Value     string `gorm:"size:1000"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SettingLateFeeRate overrides the default 5% per 30-day block when set.
const SettingLateFeeRate = "late_fee_rate"
