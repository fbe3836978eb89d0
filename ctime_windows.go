//go:build windows

package filecrypt

import (
	"time"

	"golang.org/x/sys/windows"
)

func setCreationTime(name string, t time.Time) error {
	path, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(path,
		windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	ctime := windows.NsecToFiletime(t.UnixNano())
	return windows.SetFileTime(h, &ctime, nil, nil)
}
