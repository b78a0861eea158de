package persistence

import (
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestSortSpec_Column(t *testing.T) {
	tests := []struct {
		name  string
		spec  sortSpec
		input string
		want  string
	}{
		{"empty uses fallback", goodsSort, "", "created_at"},
		{"whitelisted column", goodsSort, "price", "price"},
		{"padded column", goodsSort, "  sales ", "sales"},
		{"alias", goodsSort, "newest", "created_at"},
		{"timestamps always allowed", siteSort, "updated_at", "updated_at"},
		{"column of another table", siteSort, "price", "created_at"},
		{"case sensitive", orderSort, "TOTAL", "created_at"},
		{"injection", userSort, "email; DROP TABLE users;--", "created_at"},
		{"subquery", paymentSort, "amount, (SELECT password_hash FROM users)", "created_at"},
		{"quote break out", orderSort, `total"--`, "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.column(tt.input))
		})
	}
}

func TestDescending(t *testing.T) {
	assert.False(t, descending("asc"))
	assert.False(t, descending(" ASC "))
	assert.True(t, descending(""))
	assert.True(t, descending("desc"))
	assert.True(t, descending("ASC; DELETE FROM orders"))
}

func TestApplyPaging_SQL(t *testing.T) {
	db := setupTestDB(t)

	filter := shared.DefaultFilter()
	filter.Page = 3
	filter.PageSize = 10
	filter.OrderBy = "price"
	filter.OrderDir = "asc"

	stmt := applyPaging(db.Session(&gorm.Session{DryRun: true}).Model(&models.GoodsModel{}), filter, goodsSort).
		Find(&[]models.GoodsModel{}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "ORDER BY `price`,`id`")
	assert.Contains(t, sql, "LIMIT ? OFFSET ?")
	assert.Subset(t, stmt.Vars, []any{10, 20})

	filter.OrderBy = "password_hash"
	filter.OrderDir = "sideways"
	stmt = applyPaging(db.Session(&gorm.Session{DryRun: true}).Model(&models.GoodsModel{}), filter, goodsSort).
		Find(&[]models.GoodsModel{}).Statement
	assert.Contains(t, stmt.SQL.String(), "ORDER BY `created_at` DESC,`id` DESC")
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%shoe%", likePattern(" shoe "))
	assert.Equal(t, `%50\%%`, likePattern("50%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
}
