package driven

import "errors"

// ErrNoRemote indicates the working copy has no usable remote URL.
var ErrNoRemote = errors.New("no remote url configured")

// RemoteResolver defines the driven port for reading the origin remote URL
// of a local working copy.
type RemoteResolver interface {
	// OriginURL returns the URL of the "origin" remote of the working copy
	// containing dir.
	OriginURL(dir string) (string, error)
}
