package sitescope

import (
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const callbackName = "sitescope:before_create"

// Register installs the create guard on db. Models without a SiteID field
// are not affected.
func Register(db *gorm.DB) error {
	return db.Callback().Create().Before("gorm:create").Register(callbackName, beforeCreate)
}

func beforeCreate(db *gorm.DB) {
	if db.Error != nil || db.Statement.Schema == nil {
		return
	}
	field := db.Statement.Schema.LookUpField(Column)
	if field == nil {
		return
	}

	rv := reflect.Indirect(db.Statement.ReflectValue)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if missingSite(db, field, reflect.Indirect(rv.Index(i))) {
				_ = db.AddError(ErrSiteRequired)
				return
			}
		}
	case reflect.Struct:
		if missingSite(db, field, rv) {
			_ = db.AddError(ErrSiteRequired)
		}
	}
}

func missingSite(db *gorm.DB, field *schema.Field, row reflect.Value) bool {
	value, zero := field.ValueOf(db.Statement.Context, row)
	if zero {
		return true
	}
	id, ok := value.(uuid.UUID)
	return ok && id == uuid.Nil
}
