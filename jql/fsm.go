package jql

import (
	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/value"
)

// evalFilter is the Filter State Machine (spec.md §4.5), invoked once per
// document-walker event. It returns the filter's current matched state and
// whether this event "dirtied" the filter (advanced its terminal node).
func evalFilter(fs *filterState, f *ast.Filter, lvl int, key string, val value.Value, env *evalEnv) (matched bool, dirty bool, err error) {
	if fs.Matched {
		return true, false, nil
	}
	if lvl > fs.LastLvl+1 {
		return false, false, nil
	}
	if lvl <= fs.LastLvl {
		fs.LastLvl = lvl - 1
		for i, r := range fs.Ranges {
			if r.needsReset(lvl) {
				fs.Ranges[i] = nodeRange{}
			}
		}
	}

	lastIdx := len(f.Nodes) - 1
	for i, node := range f.Nodes {
		if !fs.Ranges[i].isArmed(lvl) {
			continue
		}

		if node.NType == ast.AnyDescent {
			dirty, err = stepAnyDescent(fs, f, i, lvl, key, val, env)
			if err != nil {
				return false, false, err
			}
			return fs.Matched, dirty, nil
		}

		ok, err := matchNode(node, key, val, env)
		if err != nil {
			return false, false, err
		}
		if ok {
			fs.Ranges[i] = nodeRange{State: Armed, Start: lvl, End: lvl}
			if i == lastIdx {
				fs.Matched = true
				dirty = true
			} else {
				fs.LastLvl = lvl
			}
		}
		return fs.Matched, dirty, nil
	}

	return fs.Matched, false, nil
}

// stepAnyDescent implements NM's AnyDescent rule (spec.md §4.4): it keeps
// collecting intermediate levels until its successor node matches at the
// current position, at which point both nodes advance together in the same
// event.
func stepAnyDescent(fs *filterState, f *ast.Filter, idx, lvl int, key string, val value.Value, env *evalEnv) (dirty bool, err error) {
	start := lvl
	if fs.Ranges[idx].State != Unreached {
		start = fs.Ranges[idx].Start
	}

	successorIdx := idx + 1
	lastIdx := len(f.Nodes) - 1

	if successorIdx > lastIdx {
		// No successor: this node is the filter's terminal, and an
		// AnyDescent terminal always matches (spec.md §4.4: "Always
		// yields match=true").
		fs.Ranges[idx] = nodeRange{State: Collecting, Start: start}
		fs.Matched = true
		return true, nil
	}

	succ := f.Nodes[successorIdx]
	succMatched, err := matchNode(succ, key, val, env)
	if err != nil {
		return false, err
	}
	if succMatched {
		fs.Ranges[idx] = nodeRange{State: Consumed, Start: start, ConsumedAt: lvl}
		fs.Ranges[successorIdx] = nodeRange{State: Armed, Start: lvl, End: lvl}
		if successorIdx == lastIdx {
			fs.Matched = true
			return true, nil
		}
		fs.LastLvl = lvl
		return false, nil
	}

	// AnyDescent always yields match=true even while still collecting
	// (spec.md §4.4), so last_lvl still advances here; only the successor
	// consumption is gated on its own match.
	fs.Ranges[idx] = nodeRange{State: Collecting, Start: start}
	fs.LastLvl = lvl
	return false, nil
}
