package actions

// Optimize runs the one mandated optimization of §4.4: push every ArrayJoin
// as late as possible, since it multiplies row count and anything done
// ahead of it runs on fewer rows. Actions are swapped pairwise with their
// immediate successor when independent, repeated to a fixed point.
func (ea *ExpressionActions) Optimize() error {
	for {
		changed := false
		for i := 0; i < len(ea.actionsList)-1; i++ {
			aj, ok := ea.actionsList[i].(*ArrayJoin)
			if !ok {
				continue
			}
			next := ea.actionsList[i+1]
			if !arrayJoinIndependentOf(aj, next) {
				continue
			}
			ea.actionsList[i], ea.actionsList[i+1] = ea.actionsList[i+1], ea.actionsList[i]
			changed = true
		}
		if !changed {
			break
		}
	}
	return ea.replay()
}

// arrayJoinIndependentOf reports whether next can run before aj without
// changing semantics: next's inputs must not read any joined column (its
// pre-join list type would differ from what next expects) and next's
// outputs must not alias one (it would be silently unjoined by the swap).
// Two ArrayJoins are never considered independent of each other: swapping
// them would change which one determines the expanded row count first.
func arrayJoinIndependentOf(aj *ArrayJoin, next Action) bool {
	if _, ok := next.(*ArrayJoin); ok {
		return false
	}
	for _, n := range next.NeededColumns() {
		if aj.Columns.Has(n) {
			return false
		}
	}
	for _, n := range next.ResultNames() {
		if aj.Columns.Has(n) {
			return false
		}
	}
	return true
}
