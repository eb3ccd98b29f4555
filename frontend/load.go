package frontend

import (
	"fmt"
	"go/ast"
	"go/build/constraint"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// Load type checks the packages in dir with tags set.
func Load(dir string, tags []string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode:       packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedSyntax | packages.NeedName | packages.NeedImports,
		Dir:        dir,
		BuildFlags: []string{fmt.Sprintf("-tags=%s", strings.Join(tags, ","))},
	}
	Logger().Debug("loading packages", zap.String("dir", dir), zap.Strings("tags", tags))
	pkgs, err := packages.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	var errs error
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs = multierr.Append(errs, e)
		}
	})
	if errs != nil {
		return nil, errs
	}
	return pkgs, nil
}

// IsSourceFile reports whether file is a generator source file: its build
// constraint holds with tag set and fails without it.
func IsSourceFile(file *ast.File, tag string) bool {
	for _, group := range file.Comments {
		if group.Pos() >= file.Package {
			break
		}
		for _, comment := range group.List {
			if !constraint.IsGoBuild(comment.Text) {
				continue
			}
			expr, err := constraint.Parse(comment.Text)
			if err != nil {
				return false
			}
			with := expr.Eval(func(t string) bool { return t == tag })
			without := expr.Eval(func(string) bool { return false })
			return with && !without
		}
	}
	return false
}
