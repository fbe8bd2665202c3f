// Package resolver expands a package's dependency list into an install set.
package resolver

import (
	"context"
	"io"
	"strings"

	"tux/pkg/descriptor"
	"tux/pkg/repository"
	"tux/pkg/tuxerr"

	"github.com/charmbracelet/log"
)

// Source is the repository view the resolver needs.
type Source interface {
	PackageExists(ctx context.Context, name string) (bool, error)
	Descriptor(name string) (*descriptor.Descriptor, error)
}

// CycleError reports a dependency cycle. Path starts and ends with Package.
type CycleError struct {
	Package string
	Path    []string
}

func (e *CycleError) Error() string {
	return "dependency cycle detected at " + e.Package + ": " + strings.Join(e.Path, " -> ")
}

// Resolver walks descriptors depth-first.
type Resolver struct {
	src    Source
	logger *log.Logger
}

// New creates a Resolver over src. A nil logger discards diagnostics.
func New(src Source, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{src: src, logger: logger}
}

// Resolve returns the dependencies of name in depth-first pre-order.
//
// Each dependency is followed immediately by its own full resolution. Names
// reachable through several paths appear once per path. The root itself is
// not included. Any failure aborts the whole walk.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]string, error) {
	w := &walk{r: r, ctx: ctx, graph: newGraph()}
	if err := w.visit(name); err != nil {
		return nil, err
	}
	return w.order, nil
}

// walk holds the state of one resolution pass.
type walk struct {
	r     *Resolver
	ctx   context.Context
	stack []string // packages currently being expanded
	order []string
	graph *graph
}

func (w *walk) visit(name string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	for i, p := range w.stack {
		if p == name {
			path := append(append([]string{}, w.stack[i:]...), name)
			return tuxerr.Wrap(tuxerr.KindCycle, &CycleError{Package: name, Path: path},
				"cannot resolve %s", w.stack[0]).ForPackage(name)
		}
	}

	d, err := w.lookup(name)
	if err != nil {
		return err
	}

	w.graph.addNode(name)
	w.stack = append(w.stack, name)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	for _, dep := range d.Depends {
		w.order = append(w.order, dep)
		w.graph.addEdge(name, dep)
		if err := w.visit(dep); err != nil {
			return err
		}
	}
	return nil
}

// lookup verifies name is indexed and reads its descriptor.
func (w *walk) lookup(name string) (*descriptor.Descriptor, error) {
	exists, err := w.r.src.PackageExists(w.ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, tuxerr.Wrap(tuxerr.KindNotFound, repository.ErrPackageNotFound,
			"unable to find package %s", name).ForPackage(name)
	}

	d, err := w.r.src.Descriptor(name)
	if err != nil {
		return nil, err
	}

	w.r.logger.Debug("resolved", "package", name, "version", d.Version, "depends", d.Depends)
	return d, nil
}
