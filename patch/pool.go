// Package patch wraps an external JSON-Patch (RFC 6902) implementation to
// satisfy the Patch Applier collaborator spec.md §6 declares out of scope:
// "apply(root, patchAST, pool) performing JSON-Patch-like mutations".
package patch

import (
	"sync"

	"github.com/jqlang/jql/doc"
)

// Pool recycles materialized tree allocations across Apply calls (spec.md
// §5: "Projection uses an external pool for materialized trees"). It holds
// *doc.Node scratch objects rather than whole trees, since object/array
// sizes vary too widely to pool usefully at the tree level.
type Pool struct {
	nodes sync.Pool
}

func NewPool() *Pool {
	return &Pool{
		nodes: sync.Pool{New: func() any { return &doc.Node{} }},
	}
}

// Alloc returns a zeroed *doc.Node from the pool, for use as a
// doc.FromJSONAlloc allocator.
func (p *Pool) Alloc() *doc.Node {
	n := p.nodes.Get().(*doc.Node)
	*n = doc.Node{}
	return n
}

// Release returns every node of tree to the pool. Callers must not use tree
// after calling Release.
func (p *Pool) Release(tree *doc.Node) {
	if tree == nil {
		return
	}
	children := make([]*doc.Node, 0)
	for c := tree.FirstChild; c != nil; c = c.Next {
		children = append(children, c)
	}
	for _, c := range children {
		p.Release(c)
	}
	p.nodes.Put(tree)
}
