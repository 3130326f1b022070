package actions

import (
	"context"

	"github.com/apache/arrow/go/v13/arrow"

	"github.com/colflow/engine/block"
)

// Function is the capability contract (§3, §6) ApplyFunction actions are
// evaluated against. The function registry and individual scalar functions
// are external collaborators (§1) — this interface is the only surface
// this module depends on.
//
// Shaped after arrowexec/execution/expression.go's FunctionCall (a Go
// func plus argument Expressions) and the teacher's
// physical.FunctionDescriptor / functions.go FunctionDetails pattern
// (type function + strictness + executor), generalized with Prerequisites
// since the header calls those out as a first-class part of the contract
// (dictionary expansions a function needs materialized before it runs).
type Function interface {
	// Name identifies the function for dumps and error messages.
	Name() string

	// ReturnType computes the function's result type from its argument
	// types, or returns a type error if they're incompatible with its
	// signature.
	ReturnType(argTypes []arrow.DataType) (arrow.DataType, error)

	// Prerequisites returns any extra Actions that must run before this
	// function is evaluated (e.g. dictionary materialization), given the
	// sample block and the names/types of this call's arguments. Most
	// functions return nil.
	Prerequisites(sample *block.SampleBlock, argNames []string, argTypes []arrow.DataType) ([]Action, error)

	// Execute evaluates the function over blk's columns at argIndices,
	// returning the result array (which the caller inserts as
	// resultName/resultType). Functions shared across evaluation threads
	// must either be safe for concurrent Execute calls or be cloned per
	// thread (§5, §9).
	Execute(ctx context.Context, blk block.Block, argIndices []int) (arrow.Array, error)
}
