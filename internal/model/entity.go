package model

import "time"

// Camera — сущность камеры с загруженной записью (GORM).
type Camera struct {
	ID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string     `gorm:"size:120;not null"`
	Description    string     `gorm:"size:500"`
	Location       string     `gorm:"size:200;not null"`
	VideoURL       string     `gorm:"column:video_url;size:300;not null"`
	VideoFileName  string     `gorm:"column:video_file_name;size:200;not null"`
	VideoFileSize  int64      `gorm:"column:video_file_size;not null;default:0"`
	Resolution     string     `gorm:"size:20;not null"`
	FrameRate      int        `gorm:"column:frame_rate;not null;default:30"`
	PlayCount      int64      `gorm:"column:play_count;not null;default:0"`
	TotalPlayTime  int64      `gorm:"column:total_play_time;not null;default:0"` // seconds
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at"`
	CreatedBy      string     `gorm:"column:created_by;type:uuid"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (Camera) TableName() string { return "cameras" }
