package markdown

import "errors"

var (
	// ErrMissingClosingDelimiter indicates a metadata block was opened but never closed.
	ErrMissingClosingDelimiter = errors.New("metadata block missing closing delimiter")

	// ErrMetadataDecode indicates the metadata block is not valid YAML.
	ErrMetadataDecode = errors.New("metadata block decode failed")

	// ErrIncludeFailed indicates an include directive referenced an unreadable file.
	ErrIncludeFailed = errors.New("include expansion failed")

	// ErrIncludeDepth indicates include expansion recursed past the nesting limit.
	ErrIncludeDepth = errors.New("include nesting too deep")

	// ErrUnterminatedFragment indicates a fragment block without its closing delimiter line.
	ErrUnterminatedFragment = errors.New("fragment block not terminated")
)
