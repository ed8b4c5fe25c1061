package errs

import "errors"

// Доменные сентинель-ошибки для маппинга в WS/HTTP ответы в handlers.
var (
	ErrCameraNotFound   = errors.New("camera not found")
	ErrSourceUnreadable = errors.New("video source unreadable")
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrConnectionClosed = errors.New("connection closed")
	ErrUnauthenticated  = errors.New("unauthenticated")
)
