// Package chain implements the Expression Actions Chain of §4.6: an
// ordered list of ExpressionActions stages, each stage's input sample
// block equal to the previous stage's output, with inter-stage
// column-liveness propagation on Finalize.
//
// Grounded on
// _examples/original_source/dbms/include/DB/Interpreters/ExpressionActions.h's
// ExpressionActionsChain, and on the "move a transform relative to its
// neighbor when independent" shape of the teacher's
// physical/optimizer/scenarios.go rewrites (the same idea
// actions.Optimize's ArrayJoin pushdown implements one level down).
package chain

import (
	"strconv"

	"github.com/kr/text"
	"github.com/pkg/errors"

	"github.com/colflow/engine/actions"
	"github.com/colflow/engine/block"
	"github.com/colflow/engine/engineerr"
	"github.com/colflow/engine/nameset"
	"github.com/colflow/engine/settings"
)

// Step is one stage of the chain: an ExpressionActions plus the output
// names the stage must preserve.
type Step struct {
	Actions        *actions.ExpressionActions
	RequiredOutput []string
}

// Chain is an ordered list of Steps (§3, §4.6).
type Chain struct {
	steps    []*Step
	settings *settings.Settings
}

// New returns an empty Chain.
func New(s *settings.Settings) *Chain {
	return &Chain{settings: s}
}

// Clear resets the chain to empty, per the header's
// ExpressionActionsChain::clear() (§13 of the expanded spec) — useful for
// planners that build tentatively and need to roll back.
func (c *Chain) Clear() {
	c.steps = nil
}

// Len returns the number of steps in the chain.
func (c *Chain) Len() int {
	return len(c.steps)
}

// Steps returns the chain's steps, in order.
func (c *Chain) Steps() []*Step {
	return append([]*Step{}, c.steps...)
}

// AddStep appends a new step whose input sample block equals the previous
// step's output sample block. Forbidden on an empty chain; the first step
// must be built directly with its own ExpressionActions and appended via
// AddFirstStep.
func (c *Chain) AddStep() (*Step, error) {
	if len(c.steps) == 0 {
		return nil, errors.Wrap(engineerr.Logical, "chain.AddStep: chain is empty, use AddFirstStep")
	}
	prev := c.steps[len(c.steps)-1]
	inputs := sampleBlockColumns(prev.Actions.GetSampleBlock())
	step := &Step{Actions: actions.New(inputs, c.settings)}
	c.steps = append(c.steps, step)
	return step, nil
}

// AddFirstStep appends the chain's first step, built directly over
// inputColumns.
func (c *Chain) AddFirstStep(inputColumns []block.NamedColumnType) *Step {
	step := &Step{Actions: actions.New(inputColumns, c.settings)}
	c.steps = append(c.steps, step)
	return step
}

// GetLastStep returns the chain's last step; fails on an empty chain.
func (c *Chain) GetLastStep() (*Step, error) {
	if len(c.steps) == 0 {
		return nil, errors.Wrap(engineerr.Logical, "chain.GetLastStep: chain is empty")
	}
	return c.steps[len(c.steps)-1], nil
}

// GetLastActions returns the last step's ExpressionActions; fails on an
// empty chain.
func (c *Chain) GetLastActions() (*actions.ExpressionActions, error) {
	step, err := c.GetLastStep()
	if err != nil {
		return nil, err
	}
	return step.Actions, nil
}

func sampleBlockColumns(sample *block.SampleBlock) []block.NamedColumnType {
	names := sample.Names()
	out := make([]block.NamedColumnType, len(names))
	for i, n := range names {
		t, _ := sample.TypeOf(n)
		out[i] = block.NamedColumnType{Name: n, Type: t}
	}
	return out
}

// String dumps the chain, one step per line, each step's actions indented
// under it.
func (c *Chain) String() string {
	return dumpChain(c)
}

// dumpChain renders every step of c, one per line, each step's own action
// dump indented two spaces beneath it via kr/text — mirroring
// explain.DumpChain's shape, reimplemented here to avoid an import cycle
// (explain imports chain).
func dumpChain(c *Chain) string {
	var out string
	for i, step := range c.Steps() {
		if i > 0 {
			out += "\n"
		}
		out += "step " + strconv.Itoa(i) + " (required: " + joinNames(step.RequiredOutput) + "):\n"
		out += text.Indent(step.Actions.String(), "  ")
	}
	return out
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

// NameSet is a convenience re-export used by callers building
// required_output lists with the same ordered-dedup semantics Finalize
// itself uses.
func NameSet(names ...string) *nameset.Set {
	return nameset.New(names...)
}
