// Package ir holds the statement tree of a generator body as seen by the
// lowering pass. Expressions stay go/ast nodes, only statements that shape
// control flow get their own kinds.
//
// Stmt is a closed set: every kind lives in this file and the lowering pass
// switches over all of them.
package ir

import "go/ast"

// Stmt is a generator body statement.
type Stmt interface {
	stmt() // unexported marker method
}

// Block is a list of statements lowered in order.
type Block struct {
	List []Stmt
}

// VarDecl declares Names. Types[i] is the declared type of Names[i], or nil
// when a short variable declaration reuses an existing variable. Values is
// either one value per name, a single multi-valued expression, or empty for
// zero values.
type VarDecl struct {
	Names  []*ast.Ident
	Types  []ast.Expr
	Values []ast.Expr
	// Define is set for the := form.
	Define bool
}

// Yield produces Value and resumes right after itself.
type Yield struct {
	Value ast.Expr
}

// Return ends the generator.
type Return struct{}

// If runs Then when Cond holds, otherwise Else, which is nil, a *Block or
// another *If.
type If struct {
	Cond ast.Expr
	Then *Block
	Else Stmt
}

// While tests Cond before every iteration. A nil Cond loops forever.
type While struct {
	Cond ast.Expr
	Body *Block
}

// DoWhile runs Body once before testing Cond.
type DoWhile struct {
	Body *Block
	Cond ast.Expr
}

// For is the three clause loop. Init is a *VarDecl or a *Simple, Post is a
// *Simple, either may be nil.
type For struct {
	Init Stmt
	Cond ast.Expr
	Post Stmt
	Body *Block
}

// ForEach walks an iterator. X evaluates to a value with
// HasNext() bool and Next() (K, V) methods, KeyType and ValueType are K and V.
// Key and Value are the assigned (or, with Define, declared) expressions and
// may be nil.
type ForEach struct {
	Key, Value         ast.Expr
	Define             bool
	KeyType, ValueType ast.Expr
	X                  ast.Expr
	Body               *Block
}

// Switch dispatches on Tag, or on the first true case when Tag is nil.
// A case that does not end in a Break continues into the next one.
type Switch struct {
	Tag   ast.Expr
	Cases []*Case
}

// Case is one switch arm. A nil List marks the default arm.
type Case struct {
	List []ast.Expr
	Body []Stmt
}

type Labeled struct {
	Label string
	Stmt  Stmt
}

// Break leaves the innermost loop or switch, or the one labeled Label.
type Break struct {
	Label string
}

// Continue starts the next iteration of the innermost loop, or of the one
// labeled Label.
type Continue struct {
	Label string
}

// TypeDecl is a local type or const declaration.
type TypeDecl struct {
	Decl *ast.GenDecl
}

// Simple is any statement without an effect on generator control flow.
type Simple struct {
	Stmt ast.Stmt
}

func (*Block) stmt()    {}
func (*VarDecl) stmt()  {}
func (*Yield) stmt()    {}
func (*Return) stmt()   {}
func (*If) stmt()       {}
func (*While) stmt()    {}
func (*DoWhile) stmt()  {}
func (*For) stmt()      {}
func (*ForEach) stmt()  {}
func (*Switch) stmt()   {}
func (*Labeled) stmt()  {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}
func (*TypeDecl) stmt() {}
func (*Simple) stmt()   {}
