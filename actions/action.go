// Package actions implements the Expression Actions core (§3, §4.3-§4.5):
// Action, the tagged transformation record, and ExpressionActions, the
// builder/optimizer/evaluator over a sequence of Actions.
//
// Grounded directly on
// _examples/original_source/dbms/include/DB/Interpreters/ExpressionActions.h
// for shape and invariants. Where the header represents every variant as
// optional fields on one struct (§9's "Polymorphism of actions" design
// note), this package follows the more idiomatic Go shape the teacher
// itself uses for its own tagged plan nodes (physical.Node: one interface,
// one concrete struct per variant, e.g. physical.Filter/physical.Requalifier)
// — an Action interface with six concrete implementations, and exhaustive
// type switches in Finalize/Optimize/Execute standing in for the header's
// case analysis on Action.Type.
package actions

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v13/arrow"

	"github.com/colflow/engine/block"
	"github.com/colflow/engine/engineerr"
	"github.com/colflow/engine/nameset"
)

// Action is one primitive block transformation (§3).
type Action interface {
	// NeededColumns returns the names this action reads. If the action
	// has not yet been added to an ExpressionActions, function
	// prerequisites are not reflected here — mirrors the header's note on
	// Action::getNeededColumns.
	NeededColumns() []string
	// ResultNames returns the names this action produces. AddColumn,
	// CopyColumn and ApplyFunction produce exactly one; RemoveColumn
	// produces none; ArrayJoin produces its joined columns (in place);
	// Project produces its aliased pairs.
	ResultNames() []string
	String() string
}

// ApplyFunction invokes a Function over named argument columns, writing
// ResultName.
type ApplyFunction struct {
	Function          Function
	ArgumentNames     []string
	PrerequisiteNames []string
	ResultName        string
	ResultType        arrow.DataType
}

func (a *ApplyFunction) NeededColumns() []string {
	return append(append([]string{}, a.ArgumentNames...), a.PrerequisiteNames...)
}
func (a *ApplyFunction) ResultNames() []string { return []string{a.ResultName} }
func (a *ApplyFunction) String() string {
	return fmt.Sprintf("APPLY FUNCTION %s(%s) -> %s", a.Function.Name(), strings.Join(a.ArgumentNames, ", "), a.ResultName)
}

// AddColumn inserts a fully materialized constant column.
type AddColumn struct {
	ResultName string
	ResultType arrow.DataType
	Value      arrow.Array
}

func (a *AddColumn) NeededColumns() []string { return nil }
func (a *AddColumn) ResultNames() []string    { return []string{a.ResultName} }
func (a *AddColumn) String() string           { return fmt.Sprintf("ADD COLUMN %s", a.ResultName) }

// RemoveColumn deletes a column by name.
type RemoveColumn struct {
	SourceName string
}

func (a *RemoveColumn) NeededColumns() []string { return []string{a.SourceName} }
func (a *RemoveColumn) ResultNames() []string    { return nil }
func (a *RemoveColumn) String() string           { return fmt.Sprintf("REMOVE COLUMN %s", a.SourceName) }

// CopyColumn duplicates a column reference under a new name.
type CopyColumn struct {
	SourceName string
	ResultName string
}

func (a *CopyColumn) NeededColumns() []string { return []string{a.SourceName} }
func (a *CopyColumn) ResultNames() []string    { return []string{a.ResultName} }
func (a *CopyColumn) String() string {
	return fmt.Sprintf("COPY COLUMN %s -> %s", a.SourceName, a.ResultName)
}

// ArrayJoin unnests a set of parallel array columns, repeating every other
// column by each row's array length.
type ArrayJoin struct {
	Columns *nameset.Set
}

// NewArrayJoin builds an ArrayJoin over the given column names; empty input
// is a logical error per the header (`"No arrays to join"`).
func NewArrayJoin(columns ...string) (*ArrayJoin, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: ArrayJoin over no columns", engineerr.Logical)
	}
	return &ArrayJoin{Columns: nameset.New(columns...)}, nil
}

func (a *ArrayJoin) NeededColumns() []string { return a.Columns.Slice() }
func (a *ArrayJoin) ResultNames() []string    { return a.Columns.Slice() }
func (a *ArrayJoin) String() string {
	return fmt.Sprintf("ARRAY JOIN %s", a.Columns.String())
}

// ProjectItem is a single (source, alias) pair of a Project action; alias
// "" means keep the source name.
type ProjectItem struct {
	Source string
	Alias  string
}

// Project reorders, renames and narrows columns; it also defines the
// step's output shape and is always kept through Finalize.
type Project struct {
	Pairs []ProjectItem
}

func (a *Project) NeededColumns() []string {
	out := make([]string, len(a.Pairs))
	for i, p := range a.Pairs {
		out[i] = p.Source
	}
	return out
}
func (a *Project) ResultNames() []string {
	out := make([]string, len(a.Pairs))
	for i, p := range a.Pairs {
		if p.Alias != "" {
			out[i] = p.Alias
		} else {
			out[i] = p.Source
		}
	}
	return out
}
func (a *Project) String() string {
	parts := make([]string, len(a.Pairs))
	for i, p := range a.Pairs {
		if p.Alias == "" {
			parts[i] = p.Source
		} else {
			parts[i] = p.Source + " AS " + p.Alias
		}
	}
	return fmt.Sprintf("PROJECT %s", strings.Join(parts, ", "))
}

func blockProjectPairs(pairs []ProjectItem) []block.ProjectPair {
	out := make([]block.ProjectPair, len(pairs))
	for i, p := range pairs {
		out[i] = block.ProjectPair{Source: p.Source, Alias: p.Alias}
	}
	return out
}
