package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	syncModeRegularValueConstant        = "regular"
	syncModeMirrorValueConstant         = "mirror"
	unsupportedSyncModeTemplateConstant = "unsupported sync mode: %s"
)

// SyncMode selects how repositories are materialized on disk.
type SyncMode string

// Supported synchronization modes.
const (
	SyncModeRegular SyncMode = SyncMode(syncModeRegularValueConstant)
	SyncModeMirror  SyncMode = SyncMode(syncModeMirrorValueConstant)
)

// ParseSyncMode converts a textual mode into a SyncMode.
func ParseSyncMode(candidate string) (SyncMode, error) {
	switch strings.ToLower(strings.TrimSpace(candidate)) {
	case syncModeRegularValueConstant, "":
		return SyncModeRegular, nil
	case syncModeMirrorValueConstant:
		return SyncModeMirror, nil
	default:
		return SyncMode(""), fmt.Errorf(unsupportedSyncModeTemplateConstant, candidate)
	}
}

// String returns the textual form of the mode.
func (mode SyncMode) String() string {
	return string(mode)
}

// FileSystem abstracts the filesystem operations used by the backup service.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	MkdirAll(path string, permissions fs.FileMode) error
	Abs(path string) (string, error)
}

// OSFileSystem implements FileSystem using the operating system.
type OSFileSystem struct{}

// Stat proxies os.Stat.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// MkdirAll proxies os.MkdirAll.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Abs proxies filepath.Abs.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}
