package filecrypt

import (
	"os"
	"time"

	"github.com/absfs/absfs"
	"github.com/djherbis/times"
)

// OSFS is a FileSystem backed by the host operating system. Paths are
// passed through unchanged.
type OSFS struct{}

// NewOSFS returns the operating system filesystem
func NewOSFS() *OSFS {
	return &OSFS{}
}

func (fs *OSFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (fs *OSFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *OSFS) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(name, perm)
}

func (fs *OSFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

// StatTimes reports the access, modification and, where the platform
// records it, birth time of name. Without a birth time the modification
// time stands in.
func (fs *OSFS) StatTimes(name string) (FileTimes, error) {
	ts, err := times.Stat(name)
	if err != nil {
		return FileTimes{}, err
	}

	created := ts.ModTime()
	if ts.HasBirthTime() {
		created = ts.BirthTime()
	}
	return FileTimes{
		Creation:   created,
		LastAccess: ts.AccessTime(),
		LastWrite:  ts.ModTime(),
	}, nil
}

// SetCreationTime sets the creation time of name where the platform allows
// it and is a no-op elsewhere.
func (fs *OSFS) SetCreationTime(name string, t time.Time) error {
	return setCreationTime(name, t)
}
