package actions

import (
	"github.com/colflow/engine/block"
	"github.com/colflow/engine/nameset"
)

// Finalize runs the backward liveness sweep of §4.3 step 2-3 against
// requiredOutput, then Optimize (step 4). It mutates ea in place and is
// idempotent: calling it twice with the same requiredOutput on an already
// finalized ExpressionActions is a no-op past the first call, since every
// action and input column still held is, by construction, already live.
func (ea *ExpressionActions) Finalize(requiredOutput []string) error {
	live := nameset.New(requiredOutput...)
	kept := make([]bool, len(ea.actionsList))

	// sawKeptAfter tracks, during the backward walk, whether any action
	// closer to the end of the list survived — an ArrayJoin ahead of a
	// kept action must itself be kept, since it changed the row count
	// every action after it now depends on.
	sawKeptAfter := false

	for i := len(ea.actionsList) - 1; i >= 0; i-- {
		a := ea.actionsList[i]
		keepThis := false

		switch act := a.(type) {
		case *Project:
			// Project is always kept: it is the shape contract of the step.
			keepThis = true
		case *ArrayJoin:
			for _, n := range act.Columns.Slice() {
				if live.Has(n) {
					keepThis = true
					break
				}
			}
			if !keepThis && sawKeptAfter {
				keepThis = true
			}
		default:
			for _, n := range a.ResultNames() {
				if live.Has(n) {
					keepThis = true
					break
				}
			}
		}

		if keepThis {
			kept[i] = true
			for _, n := range a.NeededColumns() {
				live.Add(n)
			}
			sawKeptAfter = true
		}
	}

	newActions := make([]Action, 0, len(ea.actionsList))
	for i, a := range ea.actionsList {
		if kept[i] {
			newActions = append(newActions, a)
		}
	}

	newInputs := make([]block.NamedColumnType, 0, len(ea.inputColumns))
	for _, c := range ea.inputColumns {
		if live.Has(c.Name) {
			newInputs = append(newInputs, c)
		}
	}
	if len(newInputs) == 0 && len(ea.inputColumns) > 0 {
		keep := smallestColumn(ea.inputColumns)
		for _, c := range ea.inputColumns {
			if c.Name == keep {
				newInputs = append(newInputs, c)
				break
			}
		}
	}

	ea.inputColumns = newInputs
	ea.actionsList = nil
	ea.sample = block.NewSampleBlock(newInputs)
	ea.projected = false
	for _, a := range newActions {
		if err := ea.apply(a); err != nil {
			return err
		}
	}

	return ea.Optimize()
}
