package qr

import "errors"

var (
	// ErrFilesystem covers cache directory, temp file, rename and logo read failures.
	ErrFilesystem = errors.New("filesystem error")
	// ErrParse is returned for markup or images that cannot be decoded.
	ErrParse = errors.New("parse error")
	// ErrRender is returned for unusable viewBox values and encoder failures.
	ErrRender = errors.New("render error")
)
