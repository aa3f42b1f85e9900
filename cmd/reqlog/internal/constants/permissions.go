package constants

import "os"

// File and directory permission constants used for creating log files.
const (
	// DirPermissions is the default permission mode for creating directories.
	// Value: 0755 (rwxr-xr-x)
	// Used in: logging/logger.go
	DirPermissions os.FileMode = 0755

	// FilePermissions is the default permission mode for creating regular files.
	// Value: 0644 (rw-r--r--)
	// Used in: logging/logger.go
	FilePermissions os.FileMode = 0644
)
