package persistence

import (
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortSpec whitelists the columns a listing may be ordered by. Keys are the
// names accepted from order_by, values the column they sort on.
type sortSpec struct {
	columns  map[string]string
	fallback string
}

func newSortSpec(fallback string, columns ...string) sortSpec {
	s := sortSpec{columns: map[string]string{"created_at": "created_at", "updated_at": "updated_at"}, fallback: fallback}
	for _, c := range columns {
		s.columns[c] = c
	}
	return s
}

// alias lets order_by use a friendlier name for a column.
func (s sortSpec) alias(name, column string) sortSpec {
	s.columns[name] = column
	return s
}

// column returns the whitelisted column for name, or the fallback.
func (s sortSpec) column(name string) string {
	if col, ok := s.columns[strings.TrimSpace(name)]; ok {
		return col
	}
	return s.fallback
}

// descending treats anything but an explicit asc as DESC, newest first.
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

var (
	siteSort    = newSortSpec("created_at", "code", "name", "status")
	goodsSort   = newSortSpec("created_at", "name", "price", "sales", "stock", "sku").alias("newest", "created_at")
	orderSort   = newSortSpec("created_at", "order_number", "total", "status", "paid_at")
	paymentSort = newSortSpec("created_at", "amount", "status", "method", "completed_at")
	userSort    = newSortSpec("created_at", "email", "display_name", "status", "last_login_at")
)

// applyPaging orders by a whitelisted column, with id as a stable tiebreak,
// then applies LIMIT/OFFSET.
func applyPaging(query *gorm.DB, filter shared.Filter, spec sortSpec) *gorm.DB {
	filter.Normalize()
	desc := descending(filter.OrderDir)
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: spec.column(filter.OrderBy)}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}

// likePattern escapes LIKE wildcards in shopper search input
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}
