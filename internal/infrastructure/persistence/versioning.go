package persistence

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versioned is implemented by every aggregate root
type versioned interface {
	GetVersion() int
	IncrementVersion()
	PersistedVersion() int
	MarkPersisted()
}

// nextVersion makes sure a locked save always moves the version forward
func nextVersion(a versioned) {
	if a.GetVersion() <= a.PersistedVersion() {
		a.IncrementVersion()
	}
}

// updateVersioned writes every column of model when the stored version still
// equals expected. Associations are left to the caller.
func updateVersioned(tx *gorm.DB, model any, id uuid.UUID, expected int) error {
	result := tx.Model(model).
		Where("id = ? AND version = ?", id, expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
