package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// IsNotFoundError reports whether err is a missing-record condition from
// either this package or the underlying store.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation,
// used to fall back from insert to update where upsert was intended.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey)
}
