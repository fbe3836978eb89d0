//go:build !windows

package filecrypt

import "time"

// Creation times cannot be set on this platform
func setCreationTime(name string, t time.Time) error {
	return nil
}
