package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
)

const (
	versionLayout = "20060102150405"

	markerUp    = "-- +goose Up"
	markerDown  = "-- +goose Down"
	markerBegin = "-- +goose StatementBegin"
	markerEnd   = "-- +goose StatementEnd"
)

var (
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
	filenameRe = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)
)

func migrationSlug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

func skeleton(slug string) string {
	var b strings.Builder
	for _, section := range []struct{ marker, body string }{
		{markerUp, "-- " + slug},
		{markerDown, "-- rollback " + slug},
	} {
		b.WriteString(section.marker + "\n")
		b.WriteString(markerBegin + "\n")
		b.WriteString(section.body + "\n")
		b.WriteString(markerEnd + "\n\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// CreateSQLMigration writes an empty goose migration named <timestamp>_<slug>.sql into dir
// and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	target := filepath.Join(dir, time.Now().UTC().Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", target, err)
	}
	_, werr := f.WriteString(skeleton(slug))
	if err := multierr.Append(werr, f.Close()); err != nil {
		return "", fmt.Errorf("write migration %q: %w", target, err)
	}
	return target, nil
}

// ValidateFS checks every .sql file at the root of fsys and reports all problems at once.
func ValidateFS(fsys fs.FS) error {
	if fsys == nil {
		return fmt.Errorf("migrations fs is required")
	}
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no .sql migrations found")
	}

	var problems error
	versions := make(map[int64]string, len(names))
	for _, name := range names {
		if !filenameRe.MatchString(name) {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		version, err := goose.NumericComponent(name)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if prev, dup := versions[version]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %d already used by %s", name, version, prev))
			continue
		}
		versions[version] = name
		problems = multierr.Append(problems, checkMarkers(fsys, name))
	}
	return problems
}

func checkMarkers(fsys fs.FS, name string) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	body := string(raw)
	var problems error
	for _, marker := range []string{markerUp, markerDown} {
		if !strings.Contains(body, marker) {
			problems = multierr.Append(problems, fmt.Errorf("%s: missing %q", name, marker))
		}
	}
	if strings.Count(body, markerBegin) != strings.Count(body, markerEnd) {
		problems = multierr.Append(problems, fmt.Errorf("%s: unbalanced statement markers", name))
	}
	return problems
}
