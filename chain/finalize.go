package chain

import (
	"github.com/pkg/errors"

	"github.com/colflow/engine/actions"
	"github.com/colflow/engine/engineerr"
	"github.com/colflow/engine/nameset"
)

// Finalize walks the chain back-to-front (§4.6). For each step it finalizes
// the step's own ExpressionActions against the step's RequiredOutput; it
// then unions the previous step's RequiredOutput with the current step's
// required inputs (sorted, deduplicated), and — if the previous step would
// then produce strictly more columns than the current step consumes —
// prepends a Project to the current step to drop the surplus, unless the
// current step has no required inputs at all, in which case row count must
// be preserved and the surplus is allowed to pass through untouched.
func (c *Chain) Finalize() error {
	if len(c.steps) == 0 {
		return errors.Wrap(engineerr.Logical, "chain.Finalize: chain is empty")
	}

	last := c.steps[len(c.steps)-1]
	if err := last.Actions.Finalize(last.RequiredOutput); err != nil {
		return err
	}

	for i := len(c.steps) - 1; i > 0; i-- {
		cur := c.steps[i]
		prev := c.steps[i-1]

		curRequiredInputs := cur.Actions.GetRequiredColumns()
		prev.RequiredOutput = nameset.Union(prev.RequiredOutput, curRequiredInputs)

		if err := prev.Actions.Finalize(prev.RequiredOutput); err != nil {
			return err
		}

		if len(curRequiredInputs) == 0 {
			// The current step reads nothing from prev: row count must
			// still flow through, so the surplus prev produces is allowed
			// to pass untouched into cur.
			continue
		}

		prevOutputNames := prev.Actions.GetSampleBlock().Names()
		if len(prevOutputNames) > len(curRequiredInputs) {
			if err := prependSurplusProject(cur.Actions, curRequiredInputs); err != nil {
				return err
			}
		}
	}

	return nil
}

// prependSurplusProject inserts, at position 0 of step's actions, a Project
// that keeps exactly keep (in the order given), dropping anything the
// previous step produced that this step does not itself need.
func prependSurplusProject(step *actions.ExpressionActions, keep []string) error {
	pairs := make([]actions.ProjectItem, len(keep))
	for i, n := range keep {
		pairs[i] = actions.ProjectItem{Source: n}
	}
	return step.PrependProject(&actions.Project{Pairs: pairs})
}
