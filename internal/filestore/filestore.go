// Package filestore reads and writes whole text documents.
//
// A document is always replaced as a unit. There is no atomic rename and no
// retry: a crash in the middle of Write can leave a truncated file behind.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loykin/varstore/internal/common"
)

// Store is the whole-document persistence contract shared by the variable
// manager and the config.
type Store interface {
	// Read returns the full content of the document and whether it could be read.
	Read(path string) (string, bool)
	// Write replaces the document with content and reports success.
	Write(path, content string) bool
}

// Disk stores documents as plain files.
type Disk struct{}

// NewDisk returns a filesystem-backed Store.
func NewDisk() *Disk {
	return &Disk{}
}

func (d *Disk) Read(path string) (string, bool) {
	content, err := ReadFile(path)
	if err != nil {
		common.GetLogger().WithStore("file").Debug("read failed", "path", path, "error", err)
		return "", false
	}
	return content, true
}

func (d *Disk) Write(path, content string) bool {
	if err := WriteFile(path, content); err != nil {
		common.GetLogger().WithStore("file").Debug("write failed", "path", path, "error", err)
		return false
	}
	return true
}

// ReadFile returns the content of the regular file at path.
func ReadFile(path string) (string, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- documents live in the operator-chosen data directory
	b, err := os.ReadFile(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteFile truncates or creates path and writes content to it.
func WriteFile(path, content string) error {
	clean := filepath.Clean(path)
	// #nosec G304 -- documents live in the operator-chosen data directory
	f, err := os.OpenFile(clean, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", clean, err)
	}
	return f.Close()
}

// EnsureDir creates dir when it does not exist yet. Failure is logged and
// reported, never fatal: later reads and writes will fail on their own.
func EnsureDir(dir string) bool {
	logger := common.GetLogger().WithComponent("filestore")
	if _, err := os.Stat(dir); err == nil {
		return true
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.Error("failed to create data directory", "dir", dir, "error", err)
		return false
	}
	logger.Info("created data directory", "dir", dir)
	return true
}
