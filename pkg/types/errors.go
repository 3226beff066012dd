package types

import "errors"

// Working store errors.
var (
	ErrStorageInit          = errors.New("storage initialization failed")
	ErrStorageIO            = errors.New("storage I/O failed")
	ErrReferentialIntegrity = errors.New("referential integrity violated")
)

// Archive codec errors.
var (
	ErrArchiveCorrupt = errors.New("project archive is corrupt")
	ErrFileNotFound   = errors.New("project file not found")
	ErrLegacyFormat   = errors.New("project file uses the desktop table layout")
)

// Graph and entity errors.
var (
	ErrNotFound            = errors.New("entity not found")
	ErrDanglingLink        = errors.New("link endpoint does not exist")
	ErrSelfLoop            = errors.New("link source and target are the same node")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrInvalidValue        = errors.New("invalid property value")
)

// Session lifecycle errors.
var (
	ErrSessionClosed = errors.New("no project is open")
)
