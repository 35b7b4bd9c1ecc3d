package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const upTemplate = `-- {{.Version}} {{.Name}}
-- Created: {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

const downTemplate = `-- {{.Version}} {{.Name}} (rollback)
-- Created: {{.Created}}

`

var (
	upTmpl   = template.Must(template.New("up").Parse(upTemplate))
	downTmpl = template.Must(template.New("down").Parse(downTemplate))
)

// versionWidth matches the zero padded prefix of the embedded files
const versionWidth = 6

// MigrationFile is a freshly created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Created     string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered after the highest
// version present in dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	next, err := nextVersion(dir)
	if err != nil {
		return nil, err
	}
	version := fmt.Sprintf("%0*d", versionWidth, next)
	base := version + "_" + slug

	mf := &MigrationFile{
		Version:     version,
		Name:        slug,
		Description: description,
		Created:     time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(mf.UpPath, upTmpl, mf); err != nil {
		return nil, err
	}
	if err := writeTemplate(mf.DownPath, downTmpl, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeTemplate(path string, tmpl *template.Template, mf *MigrationFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, mf); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

func nextVersion(dir string) (uint64, error) {
	names, err := ListMigrations(dir)
	if err != nil {
		return 0, err
	}
	var highest uint64
	for _, n := range names {
		prefix, _, _ := strings.Cut(n, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, v)
	}
	return highest + 1, nil
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the base names of the up files in dir, sorted by name
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	return upFiles(entries), nil
}

func upFiles(entries []fs.DirEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok && base != "" {
			out = append(out, base)
		}
	}
	return out
}

func dirFS(dir string) fs.FS {
	return os.DirFS(dir)
}
