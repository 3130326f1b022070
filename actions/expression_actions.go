package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/pkg/errors"

	"github.com/colflow/engine/block"
	"github.com/colflow/engine/engineerr"
	"github.com/colflow/engine/nameset"
	"github.com/colflow/engine/settings"
)

// ExpressionActions holds (input_columns, actions, sample_block, settings)
// per §3: sample_block at any point reflects the result of applying every
// currently held action to a block containing exactly input_columns.
type ExpressionActions struct {
	inputColumns []block.NamedColumnType
	actionsList  []Action
	sample       *block.SampleBlock
	settings     *settings.Settings

	// projected is set once a Project action has been added; addInput is
	// then forbidden, since projection invalidates the naming assumptions
	// the optimizer relies on (§4.3).
	projected bool
}

// New builds an ExpressionActions over typed input columns (the header's
// first constructor, for a block whose data isn't known yet).
func New(inputColumns []block.NamedColumnType, s *settings.Settings) *ExpressionActions {
	cols := append([]block.NamedColumnType{}, inputColumns...)
	return &ExpressionActions{
		inputColumns: cols,
		sample:       block.NewSampleBlock(cols),
		settings:     s,
	}
}

// NewFromColumns builds an ExpressionActions over already-materialized
// (typically constant) input columns — the header's second constructor.
func NewFromColumns(columns []block.NamedColumn, s *settings.Settings) *ExpressionActions {
	types := make([]block.NamedColumnType, len(columns))
	for i, c := range columns {
		types[i] = block.NamedColumnType{Name: c.Name, Type: c.Type}
	}
	return &ExpressionActions{
		inputColumns: types,
		sample:       block.NewSampleBlock(types),
		settings:     s,
	}
}

// AddInput appends an input column. Forbidden once a Project action has
// been added.
func (ea *ExpressionActions) AddInput(col block.NamedColumnType) error {
	if ea.projected {
		return errors.Wrap(engineerr.Logical, "cannot add input after a Project action")
	}
	ea.inputColumns = append(ea.inputColumns, col)
	ea.sample = ea.sample.WithColumn(arrow.Field{Name: col.Name, Type: col.Type, Nullable: true})
	return nil
}

// Add resolves action's prerequisites (recursively, via the function's
// Prerequisites against the current sample block), adds them first, then
// appends action itself. Returns the names of every column the addition
// produced, prerequisites included.
func (ea *ExpressionActions) Add(action Action) ([]string, error) {
	return ea.addImpl(action, nameset.New())
}

// addImpl mirrors ExpressionActions::addImpl: currentNames tracks the
// prerequisites currently being resolved, so a cycle — a prerequisite that
// resolves back to a name already being added — is caught as a logical
// error instead of recursing forever.
func (ea *ExpressionActions) addImpl(action Action, currentNames *nameset.Set) ([]string, error) {
	var newNames []string

	if af, ok := action.(*ApplyFunction); ok && af.Function != nil {
		argTypes, err := ea.resolveTypes(af.ArgumentNames)
		if err != nil {
			return nil, err
		}

		for _, n := range af.ArgumentNames {
			if currentNames.Has(n) {
				return nil, errors.Wrapf(engineerr.Logical, "cycle detected resolving prerequisites for column %q", n)
			}
		}

		prereqs, err := af.Function.Prerequisites(ea.sample, af.ArgumentNames, argTypes)
		if err != nil {
			return nil, err
		}

		if len(prereqs) > 0 {
			currentNames.Add(af.ResultName)
			defer currentNames.Remove(af.ResultName)

			var prereqNames []string
			for _, p := range prereqs {
				names, err := ea.addImpl(p, currentNames)
				if err != nil {
					return nil, err
				}
				prereqNames = append(prereqNames, names...)
				newNames = append(newNames, names...)
			}
			af.PrerequisiteNames = prereqNames
		}

		if af.ResultType == nil {
			rt, err := af.Function.ReturnType(argTypes)
			if err != nil {
				return nil, errors.Wrapf(engineerr.TypeMismatch, "%s: %v", af.Function.Name(), err)
			}
			af.ResultType = rt
		}
	}

	if err := ea.apply(action); err != nil {
		return nil, err
	}
	newNames = append(newNames, action.ResultNames()...)
	return newNames, nil
}

// apply appends action to the action list and advances the sample block,
// without touching prerequisites — the non-recursive half of addImpl.
func (ea *ExpressionActions) apply(action Action) error {
	switch a := action.(type) {
	case *ApplyFunction:
		for _, n := range a.ArgumentNames {
			if !ea.sample.Has(n) {
				return errors.Wrapf(engineerr.Logical, "unknown argument column %q for function %s", n, a.Function.Name())
			}
		}
		ea.sample = ea.sample.WithColumn(namedField(a.ResultName, a.ResultType))

	case *AddColumn:
		ea.sample = ea.sample.WithColumn(namedField(a.ResultName, a.ResultType))

	case *RemoveColumn:
		if !ea.sample.Has(a.SourceName) {
			return errors.Wrapf(engineerr.Logical, "cannot remove unknown column %q", a.SourceName)
		}
		ea.sample = ea.sample.WithoutColumn(a.SourceName)

	case *CopyColumn:
		t, ok := ea.sample.TypeOf(a.SourceName)
		if !ok {
			return errors.Wrapf(engineerr.Logical, "cannot copy unknown column %q", a.SourceName)
		}
		ea.sample = ea.sample.WithColumn(namedField(a.ResultName, t))

	case *ArrayJoin:
		for _, n := range a.Columns.Slice() {
			t, ok := ea.sample.TypeOf(n)
			if !ok {
				return errors.Wrapf(engineerr.Logical, "cannot array join unknown column %q", n)
			}
			elemType, err := listElementType(t)
			if err != nil {
				return errors.Wrapf(engineerr.Logical, "column %q: %v", n, err)
			}
			ea.sample = ea.sample.WithColumn(namedField(n, elemType))
		}

	case *Project:
		projected, err := ea.sample.Project(blockProjectPairs(a.Pairs))
		if err != nil {
			return errors.Wrap(engineerr.Logical, err.Error())
		}
		ea.sample = projected
		ea.projected = true

	default:
		return fmt.Errorf("actions: unknown action type %T", action)
	}

	ea.actionsList = append(ea.actionsList, action)
	return nil
}

// PrependProjectInput inserts, at position 0, a Project action over
// exactly input_columns, stripping anything added externally.
func (ea *ExpressionActions) PrependProjectInput() error {
	pairs := make([]ProjectItem, len(ea.inputColumns))
	for i, c := range ea.inputColumns {
		pairs[i] = ProjectItem{Source: c.Name}
	}
	return ea.PrependProject(&Project{Pairs: pairs})
}

// PrependProject inserts proj at position 0 of the action list, ahead of
// input_columns, used by chain.Finalize to drop the surplus a previous
// step produced that this step never reads (§4.6). proj's sources must
// name input_columns only, since at position 0 nothing else has been
// computed yet.
func (ea *ExpressionActions) PrependProject(proj *Project) error {
	ea.actionsList = append([]Action{proj}, ea.actionsList...)
	ea.projected = true
	// Check proj against input_columns first, then replay every action so
	// the sample block reflects the new first action immediately.
	rebuilt, err := block.NewSampleBlock(ea.inputColumns).Project(blockProjectPairs(proj.Pairs))
	if err != nil {
		return errors.Wrap(engineerr.Logical, err.Error())
	}
	ea.sample = rebuilt
	return ea.replay()
}

// replay rebuilds the sample block by re-applying every action after
// input_columns, used after structural edits like PrependProjectInput
// insert a new first action ahead of ones already resolved against the old
// sample.
func (ea *ExpressionActions) replay() error {
	sample := block.NewSampleBlock(ea.inputColumns)
	saved := ea.actionsList
	ea.actionsList = nil
	ea.sample = sample
	ea.projected = false
	for _, a := range saved {
		if err := ea.apply(a); err != nil {
			return err
		}
	}
	return nil
}

// GetSampleBlock returns the block-shape result of applying every held
// action to a block of exactly input_columns.
func (ea *ExpressionActions) GetSampleBlock() *block.SampleBlock {
	return ea.sample
}

// GetRequiredColumns returns the input column names.
func (ea *ExpressionActions) GetRequiredColumns() []string {
	out := make([]string, len(ea.inputColumns))
	for i, c := range ea.inputColumns {
		out[i] = c.Name
	}
	return out
}

// GetRequiredColumnsWithTypes returns the typed input column declarations.
func (ea *ExpressionActions) GetRequiredColumnsWithTypes() []block.NamedColumnType {
	return append([]block.NamedColumnType{}, ea.inputColumns...)
}

// Actions returns the held action list, in evaluation order.
func (ea *ExpressionActions) Actions() []Action {
	return append([]Action{}, ea.actionsList...)
}

// ID returns a stable identifier derived from the action list and input
// columns, suitable for plan caching/equality (§6).
func (ea *ExpressionActions) ID() string {
	var parts []string
	names := ea.GetRequiredColumns()
	sort.Strings(names)
	parts = append(parts, "in("+strings.Join(names, ",")+")")
	for _, a := range ea.actionsList {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " -> ")
}

// String dumps the action list, one action per line — the Go analogue of
// the header's dumpActions().
func (ea *ExpressionActions) String() string {
	var b strings.Builder
	for i, a := range ea.actionsList {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(a.String())
	}
	return b.String()
}

func (ea *ExpressionActions) resolveTypes(names []string) ([]arrow.DataType, error) {
	out := make([]arrow.DataType, len(names))
	for i, n := range names {
		t, ok := ea.sample.TypeOf(n)
		if !ok {
			return nil, errors.Wrapf(engineerr.Logical, "unknown column %q", n)
		}
		out[i] = t
	}
	return out, nil
}
