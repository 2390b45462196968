// Package project implements the Projection Engine (spec.md §4.8): a
// mark-and-sweep pass over a materialized document tree that prunes it to
// the shape named by a query's include/exclude clauses.
package project

import (
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/doc"
)

// Project prunes tree in place to match clauses and returns it (spec.md
// §4.8). It is idempotent on an unchanged tree (property P6).
func Project(tree *doc.Node, clauses []ast.Projection) *doc.Node {
	for _, c := range clauses {
		if c.IsAll && c.Exclude {
			return doc.NewObject()
		}
	}

	clauses = dropSubsumed(clauses)

	anyPath := false
	positions := make([]int, len(clauses))
	for i := range positions {
		positions[i] = -1
	}

	for _, c := range clauses {
		if c.IsAll {
			tree.Flags |= doc.FlagKeep
		}
	}

	for c := tree.FirstChild; c != nil; c = c.Next {
		walkClauses(c, 0, clauses, positions, &anyPath)
	}

	if anyPath {
		doc.MutateWalk(tree, func(e doc.Event) doc.MutateCommand {
			if e.Node.Flags&doc.FlagKeep != 0 {
				return doc.MutateSkipNested
			}
			if e.Node.Flags&doc.FlagPath != 0 {
				return doc.MutateContinue
			}
			return doc.MutateDelete
		})
	}

	return tree
}

// dropSubsumed removes clauses preceding the last inclusive "all" meta
// clause, since they are redundant once everything is kept by default
// (spec.md §4.8).
func dropSubsumed(clauses []ast.Projection) []ast.Projection {
	lastAll := -1
	for i, c := range clauses {
		if c.IsAll && !c.Exclude {
			lastAll = i
		}
	}
	if lastAll < 0 {
		return clauses
	}
	return clauses[lastAll:]
}

func walkClauses(n *doc.Node, lvl int, clauses []ast.Projection, pos []int, anyPath *bool) {
	key := nodeKey(n)

	next := make([]int, len(pos))
	copy(next, pos)

	for i, c := range clauses {
		if c.IsAll {
			continue
		}
		if pos[i]+1 != lvl || lvl >= len(c.Segments) {
			continue
		}
		if !matchesSegment(c.Segments[lvl].Field, key) {
			continue
		}
		next[i] = lvl
		if lvl+1 == len(c.Segments) {
			if c.Exclude {
				if n.Parent != nil {
					n.Parent.DeleteChild(n)
				}
				return
			}
			markKeep(n, anyPath)
		}
	}

	children := make([]*doc.Node, 0)
	for c := n.FirstChild; c != nil; c = c.Next {
		children = append(children, c)
	}
	for _, c := range children {
		walkClauses(c, lvl+1, clauses, next, anyPath)
	}
}

// markKeep flags n as retained and every ancestor as a retained path
// (spec.md §4.8: "mark the current node with KEEP and every ancestor with
// PATH").
func markKeep(n *doc.Node, anyPath *bool) {
	n.Flags |= doc.FlagKeep
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Flags&doc.FlagPath != 0 {
			break
		}
		a.Flags |= doc.FlagPath
		*anyPath = true
	}
}

func nodeKey(n *doc.Node) string {
	if n.Index >= 0 {
		return strconv.Itoa(n.Index)
	}
	return n.Key
}

func matchesSegment(pattern, key string) bool {
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}
