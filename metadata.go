package filecrypt

// statTimes reads the three timestamps of name. Filesystems that cannot
// report access or creation times fall back to the modification time.
func statTimes(fsys FileSystem, name string) (FileTimes, int64, error) {
	info, err := fsys.Stat(name)
	if err != nil {
		return FileTimes{}, 0, NewIOError("stat", name, err)
	}

	times := FileTimes{
		Creation:   info.ModTime(),
		LastAccess: info.ModTime(),
		LastWrite:  info.ModTime(),
	}
	if ts, ok := fsys.(TimesStater); ok {
		full, err := ts.StatTimes(name)
		if err != nil {
			return FileTimes{}, 0, NewIOError("stat", name, err)
		}
		times = full
	}
	return times, info.Size(), nil
}

// applyTimes restores the header's timestamps onto name. The creation time
// is only restored where the filesystem supports it.
func applyTimes(fsys FileSystem, name string, h *FileHeader) error {
	if err := fsys.Chtimes(name, h.Accessed(), h.Modified()); err != nil {
		return NewIOError("chtimes", name, err)
	}
	if cs, ok := fsys.(CreationTimeSetter); ok {
		if err := cs.SetCreationTime(name, h.Created()); err != nil {
			return NewIOError("chtimes", name, err)
		}
	}
	return nil
}
