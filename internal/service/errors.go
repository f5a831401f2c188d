package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrDuplicate  = errors.New("duplicate")
	// ErrStorage marks store failures. Callers may retry.
	ErrStorage = errors.New("storage unavailable")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func storageErr(op string, err error) error {
	log.Printf("[store] op=%s err=%v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// lookupErr maps a failed single-row read.
func lookupErr(what, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return storageErr(op, err)
}
