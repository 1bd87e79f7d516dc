package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the stickers home directory.
	DefaultDirName = ".stickers"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	InboxDirName  = "inbox"
	OutboxDirName = "outbox"
	FailedDirName = "failed"
	WorkDirName   = "work"
)

// Dir represents the stickers home directory structure:
//
//	~/.stickers/
//	  config.yaml
//	  inbox/    job descriptors and their input files
//	  outbox/   sorted PDFs and result reports
//	  failed/   reports of failed jobs
//	  work/     per-job scratch directories
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.stickers).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// InboxDir returns the directory watched for job descriptors.
func (d *Dir) InboxDir() string {
	return filepath.Join(d.path, InboxDirName)
}

// OutboxDir returns the directory results are written to.
func (d *Dir) OutboxDir() string {
	return filepath.Join(d.path, OutboxDirName)
}

// FailedDir returns the directory reports of failed jobs are written to.
func (d *Dir) FailedDir() string {
	return filepath.Join(d.path, FailedDirName)
}

// WorkDir returns the scratch directory of a job.
func (d *Dir) WorkDir(jobID string) string {
	return filepath.Join(d.path, WorkDirName, jobID)
}

// ResultPath returns the report path of a job in dir.
func (d *Dir) ResultPath(dir, jobName string) string {
	return filepath.Join(dir, jobName+".result.yaml")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.InboxDir(), d.OutboxDir(), d.FailedDir(), filepath.Join(d.path, WorkDirName)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureWorkDir creates the scratch directory of a job.
func (d *Dir) EnsureWorkDir(jobID string) (string, error) {
	dir := d.WorkDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// InboxPath resolves a path from a job descriptor. Relative paths are taken
// from the inbox; paths escaping the inbox are rejected.
func (d *Dir) InboxPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("path %q must be relative to the inbox", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the inbox", name)
	}
	return filepath.Join(d.InboxDir(), clean), nil
}
