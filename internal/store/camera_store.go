package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/psds-microservice/video-management-service/internal/errs"
	"github.com/psds-microservice/video-management-service/internal/model"
	"github.com/psds-microservice/video-management-service/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CameraStore is the asset store backed by the cameras table and the uploads
// directory: camera metadata lives in PostgreSQL, the transcoded recording on
// disk under video_file_name.
type CameraStore struct {
	db        *gorm.DB
	uploadDir string
	log       *zap.Logger
}

// NewCameraStore creates the store.
func NewCameraStore(db *gorm.DB, uploadDir string, log *zap.Logger) *CameraStore {
	return &CameraStore{db: db, uploadDir: uploadDir, log: log}
}

// Resolve looks up the camera and opens its recording. A missing row and a
// missing file both map to ErrCameraNotFound: either way there is nothing to
// stream for this ID.
func (s *CameraStore) Resolve(ctx context.Context, cameraID string) (*service.Asset, error) {
	var cam model.Camera
	if err := s.db.WithContext(ctx).Where("id = ?", cameraID).First(&cam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCameraNotFound
		}
		return nil, fmt.Errorf("query camera %s: %w", cameraID, err)
	}

	path := filepath.Join(s.uploadDir, filepath.Base(cam.VideoFileName))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("video file missing for camera",
				zap.String("camera_id", cameraID), zap.String("path", path))
			return nil, errs.ErrCameraNotFound
		}
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat video %s: %w", path, err)
	}
	return &service.Asset{Source: f, Length: fi.Size()}, nil
}

// RecordAccess bumps play_count and last_accessed_at for the camera.
func (s *CameraStore) RecordAccess(ctx context.Context, cameraID string) error {
	return s.db.WithContext(ctx).Model(&model.Camera{}).
		Where("id = ?", cameraID).
		Updates(map[string]any{
			"play_count":       gorm.Expr("play_count + 1"),
			"last_accessed_at": time.Now(),
		}).Error
}

// AddPlayTime accumulates whole seconds of playback into total_play_time.
func (s *CameraStore) AddPlayTime(ctx context.Context, cameraID string, seconds int64) error {
	if seconds <= 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Camera{}).
		Where("id = ?", cameraID).
		Update("total_play_time", gorm.Expr("total_play_time + ?", seconds)).Error
}
