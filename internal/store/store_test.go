package store

import (
	"testing"
)

// Compile-time checks that the contracts are importable and usable.
func TestStoreContractsExist(t *testing.T) {
	_ = ErrInvalidAddress
	_ = ErrMappingNotFound
	_ = ErrProfileNotFound
	_ = ErrDuplicateUsername
	_ = UpsertProfileParams{}
	_ = StatUpdate{}

	var _ MappingStore
	var _ ProfileStore
}
