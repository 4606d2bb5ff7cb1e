package errors

// Package errors provides sentinel errors for template handling and output
// writing. Render-stage failures are fatal; classification here keeps the
// pipeline's decision separate from the site package's mechanics.

import "errors"

var (
	// ErrNoTemplates indicates neither the bundle nor any ancestor has a template folder.
	ErrNoTemplates = errors.New("no templates found")

	// ErrTemplateLoadFailed indicates a template folder or file could not be read.
	ErrTemplateLoadFailed = errors.New("template load failed")

	// ErrTemplateParse indicates a template file failed to parse.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrRenderFailed indicates executing a page's template failed.
	ErrRenderFailed = errors.New("page render failed")

	// ErrWriteFailed indicates a rendered page could not be written to the output tree.
	ErrWriteFailed = errors.New("output write failed")

	// ErrCopyFailed indicates a static or raw asset could not be copied to the output tree.
	ErrCopyFailed = errors.New("asset copy failed")
)
