// Package metadata reads the header comment of theme and plugin files.
package metadata

import (
	"bufio"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/ZaguanLabs/mocache"
	"github.com/go-git/go-billy/v5"
)

// headerBytes is how much of a file is scanned for header fields.
const headerBytes = 8 * 1024

var fieldPattern = regexp.MustCompile(`(?i)^[ \t/*#@]*([A-Za-z][A-Za-z ]*?)\s*:(.*)$`)

// HeaderResolver resolves the text domain declared in a plugin or theme
// header ("Text Domain: my-plugin").
type HeaderResolver struct {
	fs        billy.Filesystem
	pluginDir string
}

// NewHeaderResolver creates a resolver reading from fs. Relative unit names
// that do not exist as given are looked up under pluginDir.
func NewHeaderResolver(fs billy.Filesystem, pluginDir string) *HeaderResolver {
	return &HeaderResolver{fs: fs, pluginDir: pluginDir}
}

// ResolveDomain returns the text domain of the plugin file unit.
func (r *HeaderResolver) ResolveDomain(unit string) (string, bool) {
	file, ok := r.locate(unit)
	if !ok {
		return "", false
	}

	headers, err := r.Headers(file)
	if err != nil {
		return "", false
	}

	domain := headers["Text Domain"]
	return domain, domain != ""
}

func (r *HeaderResolver) locate(unit string) (string, bool) {
	if unit == "" {
		return "", false
	}
	if isFile(r.fs, unit) {
		return unit, true
	}
	if r.pluginDir == "" {
		return "", false
	}
	candidate := path.Join(r.pluginDir, unit)
	if isFile(r.fs, candidate) {
		return candidate, true
	}
	return "", false
}

func isFile(fs billy.Filesystem, name string) bool {
	fi, err := fs.Stat(name)
	return err == nil && !fi.IsDir()
}

// Headers returns every "Name: value" field found in the first 8KB of file.
// When a field appears more than once the first occurrence wins.
func (r *HeaderResolver) Headers(file string) (map[string]string, error) {
	f, err := r.fs.Open(file)
	if err != nil {
		return nil, &mocache.LoaderError{Path: file, Message: "open", Cause: err}
	}
	defer f.Close()

	return ParseHeaders(io.LimitReader(f, headerBytes))
}

// ParseHeaders extracts header fields from r.
func ParseHeaders(r io.Reader) (map[string]string, error) {
	headers := make(map[string]string)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		m := fieldPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := normalizeName(m[1])
		value := cleanValue(m[2])
		if name == "" || value == "" {
			continue
		}
		if _, seen := headers[name]; !seen {
			headers[name] = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return headers, nil
}

func normalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// cleanValue trims whitespace and a trailing comment terminator.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "*/")
	v = strings.TrimSuffix(v, "?>")
	return strings.TrimSpace(v)
}

var _ mocache.DomainResolver = (*HeaderResolver)(nil)
