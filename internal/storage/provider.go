// Package storage defines the record data-directory abstraction.
package storage

import "github.com/starford/dagaz/internal/models"

// Provider is the interface for record file operations.
type Provider interface {
	// List returns metadata for every record file under dir (relative to the data root).
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the data root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the data root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the data root).
	Delete(path string) error
}
