package errors

// Package errors provides sentinel errors for bundle loading and page
// discovery. These enable consistent classification of failures between the
// fatal root-bundle path and the isolated sub-bundle path.

import "errors"

var (
	// ErrBundleLoadFailed indicates a bundle directory's configuration could not be read or decoded.
	ErrBundleLoadFailed = errors.New("bundle load failed")

	// ErrBundleCycle indicates a bundle directory appears more than once in the declared sub-bundle graph.
	ErrBundleCycle = errors.New("bundle declared more than once")

	// ErrSearchFailed indicates a filesystem search below a bundle directory failed.
	ErrSearchFailed = errors.New("bundle file search failed")

	// ErrBadSearchPattern indicates a glob pattern in a search spec is malformed.
	ErrBadSearchPattern = errors.New("malformed search pattern")
)
