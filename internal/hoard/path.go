package hoard

import "io/fs"

// Path is a resolved filesystem path offered as a publish source.
// Path objects are created by FilesystemManager.Resolve, which makes the
// path absolute and checks that it exists.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

// String returns the absolute path.
func (p *Path) String() string {
	return p.absPath
}

// IsDir reports whether the path is a directory.
func (p *Path) IsDir() bool {
	return p.isDir
}

// Info returns the file info captured when the path was resolved.
func (p *Path) Info() fs.FileInfo {
	return p.info
}
