// Package installer resolves a package, asks for confirmation and stages
// the artifacts of the whole install set.
package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tux/pkg/resolver"
	"tux/pkg/tuxerr"

	"github.com/charmbracelet/log"
)

// Stage names a step reported through OnProgress.
type Stage string

const (
	StageDownload Stage = "download"
	StageStaged   Stage = "staged"
)

// Options configures an Installer.
type Options struct {
	// StagingDir holds one directory per package.
	StagingDir string

	// Order selects the install order. Defaults to resolver.DefaultOrder.
	Order resolver.Order

	// AutoConfirm skips OnConfirm.
	AutoConfirm bool

	// DryRun stops after the plan is reported.
	DryRun bool

	// Fetcher downloads artifacts. Defaults to an HTTPFetcher.
	Fetcher Fetcher

	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *log.Logger

	// OnPlan is called with the install set before confirmation.
	OnPlan func(plan *resolver.Plan)

	// OnConfirm is asked whether to continue.
	// Return false to abort without touching the filesystem.
	OnConfirm func(plan *resolver.Plan) (bool, error)

	// OnProgress is called with per-package progress updates
	OnProgress func(stage Stage, name, message string)
}

// Staged describes one fetched artifact.
type Staged struct {
	Name    string
	Version string
	Dir     string
	File    string
	Bytes   int64
}

// Result is the outcome of an install.
type Result struct {
	Plan   *resolver.Plan
	Staged []Staged
	DryRun bool
}

// Installer drives the fetch sequence.
type Installer struct {
	src      resolver.Source
	resolver *resolver.Resolver
	opts     Options
}

// New creates an Installer reading packages from src.
func New(src resolver.Source, opts Options) *Installer {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewHTTPFetcher(0, "")
	}
	if opts.Order == "" {
		opts.Order = resolver.DefaultOrder
	}
	return &Installer{
		src:      src,
		resolver: resolver.New(src, opts.Logger),
		opts:     opts,
	}
}

// Install resolves root and stages every package of the install set in
// order, root last. It stops at the first failure; packages staged before
// it stay on disk.
func (i *Installer) Install(ctx context.Context, root string) (*Result, error) {
	plan, err := i.resolver.Plan(ctx, root, i.opts.Order)
	if err != nil {
		return nil, err
	}

	result := &Result{Plan: plan, DryRun: i.opts.DryRun}

	if i.opts.OnPlan != nil {
		i.opts.OnPlan(plan)
	}

	if !i.opts.AutoConfirm && !i.opts.DryRun && i.opts.OnConfirm != nil {
		ok, err := i.opts.OnConfirm(plan)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, tuxerr.Wrap(tuxerr.KindAborted, tuxerr.ErrAborted, "installation of %s cancelled", root)
		}
	}

	if i.opts.DryRun {
		i.opts.Logger.Info("dry run, nothing fetched", "root", root, "packages", len(plan.Install))
		return result, nil
	}

	for _, name := range plan.Install {
		staged, err := i.stage(ctx, name)
		if err != nil {
			return result, err
		}
		result.Staged = append(result.Staged, *staged)
	}

	return result, nil
}

// stage fetches one package into <staging>/<name>. The directory is
// removed if any step fails.
func (i *Installer) stage(ctx context.Context, name string) (_ *Staged, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(i.opts.StagingDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindIO, err, "failed to create build directory").ForPackage(name)
	}

	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			i.opts.Logger.Warn("failed to remove build directory", "dir", dir, "err", rmErr)
		}
	}()

	d, err := i.src.Descriptor(name)
	if err != nil {
		return nil, err
	}

	if d.Filename == "" || strings.ContainsAny(d.Filename, `/\`) || d.Filename == "." || d.Filename == ".." {
		return nil, tuxerr.New(tuxerr.KindIO, "refusing to write artifact %q for %s", d.Filename, name).ForPackage(name)
	}

	label := name + "-" + d.Version
	i.progress(StageDownload, name, "Downloading package "+label)
	i.opts.Logger.Debug("fetching", "package", name, "url", d.URL)

	body, err := i.opts.Fetcher.Open(ctx, d.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", label, err)
	}
	defer body.Close()

	file := filepath.Join(dir, d.Filename)
	out, err := os.Create(file)
	if err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindIO, err, "failed to create %s", file).ForPackage(name)
	}

	src := &bodyReader{r: body}
	n, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if src.err != nil {
			return nil, tuxerr.Wrap(tuxerr.KindNetwork, src.err, "connection lost while downloading %s", label).ForPackage(name)
		}
		return nil, tuxerr.Wrap(tuxerr.KindIO, err, "failed to write %s", file).ForPackage(name)
	}

	i.progress(StageStaged, name, fmt.Sprintf("%s staged (%d bytes)", label, n))

	return &Staged{
		Name:    name,
		Version: d.Version,
		Dir:     dir,
		File:    file,
		Bytes:   n,
	}, nil
}

func (i *Installer) progress(stage Stage, name, message string) {
	if i.opts.OnProgress != nil {
		i.opts.OnProgress(stage, name, message)
	}
}

// bodyReader keeps the read-side error of a download so it can be told
// apart from a failed write.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		b.err = err
	}
	return n, err
}
