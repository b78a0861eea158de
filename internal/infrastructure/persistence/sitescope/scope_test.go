package sitescope

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type slide struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	SiteID uuid.UUID `gorm:"type:uuid;not null"`
	UserID uuid.UUID `gorm:"type:uuid"`
	Title  string
}

type category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&slide{}, &category{}))
	require.NoError(t, Register(db))
	return db
}

func TestScope(t *testing.T) {
	db := setupDB(t)
	main, other := uuid.New(), uuid.New()
	owner := uuid.New()
	require.NoError(t, db.Create(&[]slide{
		{ID: uuid.New(), SiteID: main, UserID: owner, Title: "a"},
		{ID: uuid.New(), SiteID: main, Title: "b"},
		{ID: uuid.New(), SiteID: other, UserID: owner, Title: "c"},
	}).Error)

	var rows []slide
	require.NoError(t, db.Scopes(Scope(main)).Order("title").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Title)

	rows = nil
	require.NoError(t, db.Scopes(ScopeOwner(other, owner)).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Title)

	err := db.Scopes(Scope(uuid.Nil)).Find(&rows).Error
	assert.ErrorIs(t, err, ErrSiteRequired)
}

func TestRegister_RejectsRowsWithoutSite(t *testing.T) {
	db := setupDB(t)

	err := db.Create(&slide{ID: uuid.New(), Title: "orphan"}).Error
	assert.ErrorIs(t, err, ErrSiteRequired)

	err = db.Create(&[]slide{
		{ID: uuid.New(), SiteID: uuid.New(), Title: "ok"},
		{ID: uuid.New(), Title: "orphan"},
	}).Error
	assert.ErrorIs(t, err, ErrSiteRequired)

	var count int64
	require.NoError(t, db.Model(&slide{}).Count(&count).Error)
	assert.Zero(t, count)

	// tables without a site column are untouched
	assert.NoError(t, db.Create(&category{ID: uuid.New(), Name: "Shoes"}).Error)
}
