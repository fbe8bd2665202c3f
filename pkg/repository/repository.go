// Package repository gives access to the local mirror of the package catalog.
//
// The mirror is a clone of a remote repository whose origin address is read
// from a single-line locator file. It holds an index file listing every
// package name, one per line, and one directory per package containing that
// package's descriptor. The mirror is cloned on first access and is never
// refreshed automatically afterwards.
package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tux/pkg/descriptor"
	"tux/pkg/tuxerr"

	"github.com/charmbracelet/log"
)

// IndexFile is the name of the package index inside the mirror.
const IndexFile = "index"

var (
	// ErrPackageNotFound is wrapped when a name is absent from the index.
	ErrPackageNotFound = errors.New("package not found")

	// ErrStale is wrapped when the index lists a package whose descriptor is missing.
	ErrStale = errors.New("repository is stale")

	// ErrInvalidName is wrapped when a package name cannot name a directory.
	ErrInvalidName = errors.New("invalid package name")
)

// Options configures a Repository.
type Options struct {
	// LocatorFile holds the remote origin address on a single line.
	LocatorFile string

	// MirrorDir is where the remote catalog is cloned.
	MirrorDir string

	// Syncer performs the clone. Defaults to GitSyncer.
	Syncer Syncer

	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *log.Logger
}

// Repository answers lookups against the mirror.
type Repository struct {
	locatorFile string
	mirrorDir   string
	syncer      Syncer
	logger      *log.Logger
}

// New creates a Repository.
func New(opts Options) *Repository {
	if opts.Syncer == nil {
		opts.Syncer = &GitSyncer{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Repository{
		locatorFile: opts.LocatorFile,
		mirrorDir:   opts.MirrorDir,
		syncer:      opts.Syncer,
		logger:      opts.Logger,
	}
}

// MirrorDir returns the mirror location.
func (r *Repository) MirrorDir() string {
	return r.mirrorDir
}

// LocatorFile returns the path of the origin locator file.
func (r *Repository) LocatorFile() string {
	return r.locatorFile
}

// Locator reads the origin address with its trailing newline stripped.
func (r *Repository) Locator() (string, error) {
	data, err := os.ReadFile(r.locatorFile)
	if err != nil {
		return "", tuxerr.Wrap(tuxerr.KindConfiguration, err, "unable to read repository locator %s", r.locatorFile)
	}

	origin := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(origin) == "" {
		return "", tuxerr.New(tuxerr.KindConfiguration, "repository locator %s is empty", r.locatorFile)
	}
	return origin, nil
}

// Synced reports whether the mirror directory exists.
func (r *Repository) Synced() bool {
	_, err := os.Stat(r.mirrorDir)
	return err == nil
}

// EnsureMirror clones the origin into the mirror directory if it is absent.
// The locator must be readable even when the mirror already exists.
func (r *Repository) EnsureMirror(ctx context.Context) error {
	origin, err := r.Locator()
	if err != nil {
		return err
	}

	if r.Synced() {
		return nil
	}

	r.logger.Info("package repository not found, cloning it", "origin", origin, "dir", r.mirrorDir)

	if err := r.syncer.Clone(ctx, origin, r.mirrorDir); err != nil {
		// A half-written clone would be mistaken for a synced mirror next run
		_ = os.RemoveAll(r.mirrorDir) //nolint:errcheck
		return tuxerr.Wrap(tuxerr.KindNetwork, err, "unable to clone package repository %s", origin)
	}

	r.logger.Debug("package repository cloned", "dir", r.mirrorDir)
	return nil
}

// PackageExists reports whether name is listed in the index.
// Lines are compared exactly; a trailing carriage return is ignored.
func (r *Repository) PackageExists(ctx context.Context, name string) (bool, error) {
	if err := r.EnsureMirror(ctx); err != nil {
		return false, err
	}

	found := false
	err := r.scanIndex(func(line string) bool {
		if line == name {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}

	r.logger.Debug("index lookup", "package", name, "found", found)
	return found, nil
}

// Packages returns every name listed in the index, in file order.
func (r *Repository) Packages(ctx context.Context) ([]string, error) {
	if err := r.EnsureMirror(ctx); err != nil {
		return nil, err
	}

	var names []string
	err := r.scanIndex(func(line string) bool {
		if line != "" {
			names = append(names, line)
		}
		return true
	})
	return names, err
}

// scanIndex calls fn for each index line until fn returns false.
func (r *Repository) scanIndex(fn func(line string) bool) error {
	indexPath := filepath.Join(r.mirrorDir, IndexFile)

	f, err := os.Open(indexPath)
	if err != nil {
		return tuxerr.Wrap(tuxerr.KindIO, err, "failed to open package index file %s", indexPath)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if !fn(strings.TrimSuffix(scanner.Text(), "\r")) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return tuxerr.Wrap(tuxerr.KindIO, err, "failed to read package index file %s", indexPath)
	}
	return nil
}

// DescriptorPath returns <mirror>/<name>/package.json.
func (r *Repository) DescriptorPath(name string) string {
	return filepath.Join(r.mirrorDir, name, descriptor.FileName)
}

// Descriptor reads the descriptor of name fresh from the mirror.
func (r *Repository) Descriptor(name string) (*descriptor.Descriptor, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	path := r.DescriptorPath(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tuxerr.Wrap(tuxerr.KindNotFound, ErrStale,
				"package.json file not found for %s, you might need to update the repository", name).ForPackage(name)
		}
		return nil, tuxerr.Wrap(tuxerr.KindIO, err, "failed to stat %s", path).ForPackage(name)
	}

	d, err := descriptor.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json file for %s: %w", name, err)
	}
	return d, nil
}

// ValidateName rejects names that cannot safely name a directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return tuxerr.Wrap(tuxerr.KindNotFound, ErrInvalidName, "invalid package name %q", name).ForPackage(name)
	}
	return nil
}
