package compress

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/storage"
)

type backup struct {
	path    string
	copy    string
	existed bool
}

// backups remembers the files a workflow replaced so a failed or drifting
// run can put them back.
type backups struct {
	fs    storage.Storage
	dir   string
	saved []backup
}

func (c *Compressor) newBackups(dir string) *backups {
	return &backups{fs: c.fs, dir: dir}
}

// save copies p into the backup directory before it is overwritten. A file
// that does not exist yet is only noted, so restore removes it.
func (b *backups) save(p string, existed bool) error {
	bk := backup{path: p, existed: existed}
	if existed {
		bk.copy = path.Join(b.dir, path.Base(p))
		if err := storage.Copy(b.fs, p, bk.copy); err != nil {
			return fmt.Errorf("back up %s: %w", p, err)
		}
	}
	b.saved = append(b.saved, bk)
	return nil
}

// restore undoes every saved write, newest first.
func (b *backups) restore() error {
	var errs []error
	for i := len(b.saved) - 1; i >= 0; i-- {
		bk := b.saved[i]
		var err error
		if bk.existed {
			err = storage.Copy(b.fs, bk.copy, bk.path)
		} else {
			err = b.fs.Remove(bk.path)
			if errors.Is(err, storage.ErrNotExist) {
				err = nil
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", bk.path, err))
		}
	}
	b.saved = nil
	return errors.Join(errs...)
}

// archivePath picks where src goes under dir. An occupied name gets the
// run ID appended so nothing already archived is overwritten.
func (c *Compressor) archivePath(dir, src string) string {
	name := path.Base(src)
	dst := path.Join(dir, name)
	if !storage.Exists(c.fs, dst) {
		return dst
	}
	ext := path.Ext(name)
	return path.Join(dir, strings.TrimSuffix(name, ext)+"-"+c.runID+ext)
}
