package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Marusmurong/mall-sub000/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"add wishlist share token", "add_wishlist_share_token"},
		{"Add-Coinbase-Details", "add_coinbase_details"},
		{"orders__status  index", "orders_status_index"},
		{"  usdt v2  ", "usdt_v2"},
		{"goods!@#images", "goods_images"},
		{"_slides_", "slides"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.input))
		})
	}
}

func TestCreate_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "init storefront", "Sites, catalog and orders")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_init_storefront.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_init_storefront.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- 000001 init_storefront (up)")
	assert.Contains(t, string(up), "-- Sites, catalog and orders")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(down)")

	second, err := Create(dir, "Add slide schedule", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.FileExists(t, filepath.Join(dir, "000002_add_slide_schedule.up.sql"))
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	_, err := Create(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	schema := fstest.MapFS{
		"000002_payments.up.sql":   {},
		"000002_payments.down.sql": {},
		"000001_init.up.sql":       {},
		"000001_init.down.sql":     {},
		"README.md":                {},
	}

	files, err := List(schema)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, uint(1), files[0].Version)
	assert.Equal(t, "init", files[0].Name)
	assert.Equal(t, "000002_payments.down.sql", files[1].DownPath)
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema fstest.MapFS
	}{
		{"missing down half", fstest.MapFS{"000001_init.up.sql": {}}},
		{"version reused", fstest.MapFS{
			"000001_init.up.sql":    {},
			"000001_init.down.sql":  {},
			"000001_other.up.sql":   {},
			"000001_other.down.sql": {},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := List(tt.schema)
			assert.Error(t, err)
		})
	}
}

func TestList_MissingDirectory(t *testing.T) {
	files, err := List(os.DirFS(filepath.Join(t.TempDir(), "nope")))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestEmbeddedSchemaIsComplete(t *testing.T) {
	files, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i, f := range files {
		assert.Equal(t, uint(i+1), f.Version, "versions must be contiguous")
	}
}
