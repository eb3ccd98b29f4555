package main

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"io"
	"os"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tmr232/yieldgen/config"
	"github.com/tmr232/yieldgen/emit"
	"github.com/tmr232/yieldgen/frontend"
)

type generator struct {
	cfg    *config.Config
	wiz    *emit.Wizard
	dryRun bool
	out    io.Writer
	logger *zap.Logger
}

// sourceFile is a generator source file and what the frontend found in it.
type sourceFile struct {
	path       string
	fset       *token.FileSet
	file       *ast.File
	generators []*frontend.Generator
	// diagnostics found by the frontend.
	diagnostics error

	src []byte
	// problems found while lowering and emitting.
	problems error
}

// Run rewrites every generator source file of the packages in dir. Files
// are written even when some of their generators could not be rewritten;
// the returned error then wraps frontend.ErrIneligible.
func (g *generator) Run(ctx context.Context, dir string) error {
	pkgs, err := frontend.Load(dir, g.cfg.Tags)
	if err != nil {
		return err
	}

	var files []*sourceFile
	for _, pkg := range pkgs {
		// Holder names are unique per package, so one scanner sees all files.
		scanner := frontend.NewScanner(pkg.Fset, pkg.Types, pkg.TypesInfo)
		for _, file := range pkg.Syntax {
			if !frontend.IsSourceFile(file, g.cfg.Tag()) {
				continue
			}
			generators, diagnostics := scanner.Scan(file)
			files = append(files, &sourceFile{
				path:        pkg.Fset.Position(file.Pos()).Filename,
				fset:        pkg.Fset,
				file:        file,
				generators:  generators,
				diagnostics: diagnostics,
			})
		}
	}
	if len(files) == 0 {
		g.logger.Warn("no generator source files found", zap.String("dir", dir), zap.String("tag", g.cfg.Tag()))
		return nil
	}

	jobs := g.cfg.Jobs
	if jobs == 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)
	for _, f := range files {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := g.wiz.WithFile(f.fset, f.file, f.generators).Generate()
			if src == nil {
				return fmt.Errorf("%s: %w", f.path, err)
			}
			f.src, f.problems = src, err
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	var errs error
	for _, f := range files {
		for _, err := range multierr.Errors(multierr.Append(f.diagnostics, f.problems)) {
			g.logger.Error("cannot rewrite generator", zap.Error(err))
		}
		errs = multierr.Append(errs, multierr.Append(f.diagnostics, f.problems))
		if err := g.write(f); err != nil {
			return err
		}
	}
	return errs
}

func (g *generator) write(f *sourceFile) error {
	output := g.cfg.Output(f.path)
	if g.dryRun {
		_, err := fmt.Fprintf(g.out, "// %s\n%s\n", output, f.src)
		return err
	}
	if err := os.WriteFile(output, f.src, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	g.logger.Info("generated",
		zap.String("file", output),
		zap.Int("generators", len(f.generators)))
	return nil
}
