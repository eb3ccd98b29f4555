package frontend

import (
	"fmt"
	"go/ast"
	"go/types"
	"reflect"
	"strings"

	"github.com/tmr232/yieldgen"
)

type TypeInfo struct {
	PkgPath string
	Name    string
}

func (t TypeInfo) String() string {
	return fmt.Sprintf("%s.%s", t.PkgPath, t.Name)
}

func (t TypeInfo) Is(obj types.Object) bool {
	return obj != nil && obj.Pkg() != nil && obj.Pkg().Path() == t.PkgPath && obj.Name() == t.Name
}

var (
	GeneratorType TypeInfo
	YieldType     TypeInfo
	SeqType       TypeInfo
)

func init() {
	generatorType := reflect.TypeOf(new(yieldgen.Generator[struct{}])).Elem()
	name, _, _ := strings.Cut(generatorType.Name(), "[")
	GeneratorType = TypeInfo{
		PkgPath: generatorType.PkgPath(),
		Name:    name,
	}
	YieldType = TypeInfo{PkgPath: GeneratorType.PkgPath, Name: "Yield"}
	SeqType = TypeInfo{PkgPath: GeneratorType.PkgPath, Name: "Seq"}
}

// RuntimePath is the import path of the runtime package.
func RuntimePath() string {
	return GeneratorType.PkgPath
}

// usesYield reports whether node refers to Yield anywhere.
func usesYield(info *types.Info, node ast.Node) (found bool) {
	ast.Inspect(node, func(n ast.Node) bool {
		if found {
			return false
		}
		if ident, ok := n.(*ast.Ident); ok {
			found = YieldType.Is(info.Uses[ident])
		}
		return !found
	})
	return found
}

// elemType returns the element type of a Generator type.
func elemType(typ types.Type) (types.Type, bool) {
	named, ok := typ.(*types.Named)
	if !ok || !GeneratorType.Is(named.Obj()) || named.TypeArgs().Len() != 1 {
		return nil, false
	}
	return named.TypeArgs().At(0), true
}

// IsGenerator checks if a given ast.FuncDecl is a generator definition: it
// returns a Generator and uses Yield in its body. Functions that merely return
// a generator are left alone.
func IsGenerator(info *types.Info, decl *ast.FuncDecl) bool {
	results := decl.Type.Results
	if results == nil || len(results.List) != 1 || decl.Body == nil {
		return false
	}
	if _, ok := elemType(info.TypeOf(results.List[0].Type)); !ok {
		return false
	}
	return usesYield(info, decl.Body)
}
