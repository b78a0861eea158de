package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// versionWidth matches the zero-padded sequence used by `migrate create -seq`
const versionWidth = 6

var (
	fileRe     = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)
	nonNameRe  = regexp.MustCompile(`[^a-z0-9]+`)
	sqlFileTpl = template.Must(template.New("migration").Parse(
		`-- {{.Version}} {{.Name}} ({{.Direction}})
-- Created {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))
)

// File describes one migration version with both halves on disk
type File struct {
	Version     uint
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// Create writes an empty up/down pair numbered one past the highest version
// already in dir
func Create(dir, name, description string) (*File, error) {
	slug := Slug(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var version uint = 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionWidth, version, slug)
	f := &File{
		Version:     version,
		Name:        slug,
		Description: description,
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeHalf(f.UpPath, f, "up", created); err != nil {
		return nil, err
	}
	if err := writeHalf(f.DownPath, f, "down", created); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func writeHalf(path string, f *File, direction, created string) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	return sqlFileTpl.Execute(out, map[string]any{
		"Version":     fmt.Sprintf("%0*d", versionWidth, f.Version),
		"Name":        f.Name,
		"Direction":   direction,
		"Created":     created,
		"Description": f.Description,
	})
}

// Slug lowercases a free-form name into the [a-z0-9_] form used in file names
func Slug(name string) string {
	return strings.Trim(nonNameRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// List returns the versions found in schema in ascending order. A version
// missing its down half is reported as an error since it cannot be rolled back.
func List(schema fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(schema, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[uint]*File)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad migration version in %s: %w", e.Name(), err)
		}
		f, ok := byVersion[uint(v)]
		if !ok {
			f = &File{Version: uint(v), Name: m[2]}
			byVersion[uint(v)] = f
		} else if f.Name != m[2] {
			return nil, fmt.Errorf("version %d used by both %q and %q", v, f.Name, m[2])
		}
		if m[3] == "up" {
			f.UpPath = e.Name()
		} else {
			f.DownPath = e.Name()
		}
	}

	files := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		if f.UpPath == "" || f.DownPath == "" {
			return nil, fmt.Errorf("migration %0*d_%s is missing a half", versionWidth, f.Version, f.Name)
		}
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}
