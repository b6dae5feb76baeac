package storage

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

type memFile struct {
	text    string
	modTime time.Time
}

// MemStorage is an in-memory Storage for tests and dry runs.
type MemStorage struct {
	files map[string]memFile
	now   func() time.Time
}

// NewMemStorage returns an empty store whose writes are stamped with now.
func NewMemStorage(now func() time.Time) *MemStorage {
	if now == nil {
		now = time.Now
	}
	return &MemStorage{files: map[string]memFile{}, now: now}
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func notExist(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
}

// SetModTime overrides the modification time of an existing file.
func (m *MemStorage) SetModTime(p string, t time.Time) {
	p = clean(p)
	if f, ok := m.files[p]; ok {
		f.modTime = t
		m.files[p] = f
	}
}

// Files returns every stored path, sorted.
func (m *MemStorage) Files() []string {
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *MemStorage) Read(p string) (string, error) {
	f, ok := m.files[clean(p)]
	if !ok {
		return "", notExist("read", p)
	}
	return f.text, nil
}

func (m *MemStorage) Write(p, text string) error {
	p = clean(p)
	if p == "" {
		return fmt.Errorf("write: empty path")
	}
	m.files[p] = memFile{text: text, modTime: m.now()}
	return nil
}

func (m *MemStorage) List(dir string) ([]Entry, error) {
	dir = clean(dir)
	prefix := dir + "/"
	if dir == "" {
		prefix = ""
	}
	seen := map[string]Entry{}
	for p, f := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := rest[:i]
			if _, ok := seen[name]; !ok {
				seen[name] = Entry{Name: name, IsDir: true}
			}
			continue
		}
		seen[rest] = Entry{Name: rest, Size: int64(len(f.text)), ModTime: f.modTime}
	}
	if len(seen) == 0 {
		return nil, notExist("list", dir)
	}
	entries := make([]Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *MemStorage) Move(src, dst string) error {
	f, ok := m.files[clean(src)]
	if !ok {
		return notExist("move", src)
	}
	m.files[clean(dst)] = f
	delete(m.files, clean(src))
	return nil
}

func (m *MemStorage) Remove(p string) error {
	if _, ok := m.files[clean(p)]; !ok {
		return notExist("remove", p)
	}
	delete(m.files, clean(p))
	return nil
}

func (m *MemStorage) Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("glob %q: %w", pattern, doublestar.ErrBadPattern)
	}
	var out []string
	for _, p := range m.Files() {
		if ok, _ := doublestar.Match(pattern, p); ok {
			out = append(out, p)
		}
	}
	return out, nil
}
