package patch

import (
	jsonpatch "github.com/evanphx/json-patch"

	"github.com/jqlang/jql/doc"
	"github.com/jqlang/jql/errcode"
)

// Apply runs a JSON-Patch document against root and returns the mutated
// result (spec.md §6's "apply(root, patchAST, pool)"). The tree is
// round-tripped through JSON because the underlying library operates on
// encoded documents; pool nodes back the decoded result so repeated
// apply-then-project cycles reuse allocations.
func Apply(root *doc.Node, patchDoc []byte, pool *Pool) (*doc.Node, error) {
	src, err := doc.ToJSON(root)
	if err != nil {
		return nil, errcode.Wrap(errcode.Assertion, err, "failed to encode document for patch")
	}

	p, err := jsonpatch.DecodePatch(patchDoc)
	if err != nil {
		return nil, errcode.Wrap(errcode.Assertion, err, "invalid patch document")
	}

	out, err := p.Apply(src)
	if err != nil {
		return nil, errcode.Wrap(errcode.Assertion, err, "patch application failed")
	}

	alloc := func() *doc.Node { return &doc.Node{} }
	if pool != nil {
		alloc = pool.Alloc
	}
	result, err := doc.FromJSONAlloc(out, alloc)
	if err != nil {
		return nil, errcode.Wrap(errcode.Assertion, err, "failed to decode patched document")
	}
	return result, nil
}
