package service

import (
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	TooLarge            = 413
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid      = errors.New("invalid parameters")
	ErrNoMedia           = errors.New("at least one media file is required")
	ErrTooManyMedia      = errors.New("too many media files")
	ErrFileNotSupported  = errors.New("unsupported file type")
	ErrVideoNotSupported = errors.New("unsupported video format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrFileUnreadable    = errors.New("file could not be read")
	ErrImageProcessing   = errors.New("image processing failed")
	ErrPostNotFound      = errors.New("post not found")
	UnauthorizedError    = errors.New("unauthorized")
	ForbiddenError       = errors.New("permission denied")
	UnExpectedError      = errors.New("unexpected error, please retry later")

	ErrQueueFull          = errors.New("transcode queue is full")
	ErrDispatcherClosed   = errors.New("transcode dispatcher is shut down")
	ErrTranscodeAbandoned = errors.New("transcode did not finish in time")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrNoMedia:           BadRequest,
	ErrTooManyMedia:      BadRequest,
	ErrFileNotSupported:  BadRequest,
	ErrVideoNotSupported: BadRequest,
	ErrFileTooLarge:      TooLarge,
	ErrFileUnreadable:    BadRequest,
	ErrImageProcessing:   BadRequest,
	ErrPostNotFound:      NotFound,
	UnauthorizedError:    Unauthorized,
	ForbiddenError:       Forbidden,
	UnExpectedError:      InternalServerError,
	ErrQueueFull:         ServiceUnavailable,
	ErrDispatcherClosed:  ServiceUnavailable,
}

// CodeOf 沿错误链查找业务码，未登记的错误返回 false
func CodeOf(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}

// MediaFileError 指明出错的上传文件
type MediaFileError struct {
	Filename string
	Err      error
}

func (e *MediaFileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Filename)
}

func (e *MediaFileError) Unwrap() error {
	return e.Err
}

func fileError(filename string, err error) error {
	return &MediaFileError{Filename: filename, Err: err}
}
