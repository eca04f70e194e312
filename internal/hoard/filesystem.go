package hoard

// FilesystemManager resolves publish sources on the local filesystem.
type FilesystemManager interface {
	// Resolve makes rawPath absolute and checks that it is a regular file
	// or a directory.
	Resolve(rawPath string) (*Path, error)

	// FindFiles lists the regular files below a directory, descending into
	// subdirectories when recursive is set.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// IsIgnored reports whether path, found below root, is left out of a
	// publish by the configured and per-directory ignore patterns.
	IsIgnored(path *Path, root string) (bool, error)
}
