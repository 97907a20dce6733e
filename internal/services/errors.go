package services

import (
	"errors"

	"github.com/markdave123-py/coursechat/internal/core"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorageUnavailable = errors.New("object storage not configured")

	ErrNotFound = core.ErrNotFound
	ErrConflict = core.ErrConflict
)
