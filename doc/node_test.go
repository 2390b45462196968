package doc

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jqlang/jql/value"
)

func mustDecode(t *testing.T, js string) *Node {
	t.Helper()
	n, err := FromJSON([]byte(js))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	return n
}

func TestFromJSONScalarsAndStructure(t *testing.T) {
	n := mustDecode(t, `{"a":1,"b":[true,null,"x"]}`)
	if n.Kind != Object {
		t.Fatalf("expected Object root, got %v", n.Kind)
	}
	fields := n.fields()
	if fields["a"].AsInt() != 1 {
		t.Fatalf("expected a=1, got %v", fields["a"])
	}
	arr := fields["b"].AsTreeRef()
	elems, ok := arr.Elements()
	if !ok || len(elems) != 3 {
		t.Fatalf("expected 3 array elements, got %+v", elems)
	}
	if elems[0].AsBool() != true {
		t.Fatalf("expected true, got %v", elems[0])
	}
	if elems[1].Kind != value.Null {
		t.Fatalf("expected Null, got %v", elems[1].Kind)
	}
	if elems[2].AsString() != "x" {
		t.Fatalf("expected \"x\", got %v", elems[2])
	}
}

func TestStructuralEqualArraysAndObjects(t *testing.T) {
	a := mustDecode(t, `{"x":1,"y":[1,2]}`)
	b := mustDecode(t, `{"y":[1,2],"x":1}`)
	c := mustDecode(t, `{"x":1,"y":[1,3]}`)

	if !a.StructuralEqual(b) {
		t.Fatal("expected field-order-independent structural equality")
	}
	if a.StructuralEqual(c) {
		t.Fatal("expected structural inequality for differing array element")
	}
}

func TestWalkVisitsEveryNodeOnceDepthFirst(t *testing.T) {
	root := mustDecode(t, `{"a":{"b":1},"c":[1,2]}`)

	var events []Event
	Walk(root, func(e Event) Command {
		events = append(events, e)
		return Continue
	})

	if len(events) != 6 { // root, a, a.b, c, c[0], c[1]
		t.Fatalf("expected 6 events, got %d: %+v", len(events), events)
	}
	if events[0].Level != 0 {
		t.Fatalf("expected root at level 0, got %d", events[0].Level)
	}
}

func TestWalkSkipNestedPrunesDescent(t *testing.T) {
	root := mustDecode(t, `{"a":{"b":1,"c":2},"d":3}`)

	var visited []string
	Walk(root, func(e Event) Command {
		visited = append(visited, e.Key)
		if e.Key == "a" {
			return SkipNested
		}
		return Continue
	})

	for _, k := range visited {
		if k == "b" || k == "c" {
			t.Fatalf("expected SkipNested to prune a's children, but visited %q", k)
		}
	}
}

func TestWalkTerminateStopsImmediately(t *testing.T) {
	root := mustDecode(t, `{"a":1,"b":2,"c":3}`)

	count := 0
	Walk(root, func(e Event) Command {
		count++
		if e.Key == "a" {
			return Terminate
		}
		return Continue
	})
	if count != 2 { // root + "a"
		t.Fatalf("expected walk to stop right after \"a\", got %d events", count)
	}
}

// ToJSON round-trips a decoded tree back to an equivalent JSON value; decode
// both sides to a generic any-tree so the comparison isn't tripped up by
// Node's internal field layout.
func TestToJSONRoundTripPreservesStructure(t *testing.T) {
	const src = `{"a":1,"b":[true,null,"x"],"c":{"d":2.5}}`
	n := mustDecode(t, src)

	out, err := ToJSON(n)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var want, got any
	if err := json.Unmarshal([]byte(src), &want); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal got: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round-tripped tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMutateWalkDeleteRemovesNode(t *testing.T) {
	root := mustDecode(t, `{"a":1,"b":2}`)

	MutateWalk(root, func(e Event) MutateCommand {
		if e.Key == "a" {
			return MutateDelete
		}
		return MutateContinue
	})

	fields := root.fields()
	if _, ok := fields["a"]; ok {
		t.Fatal("expected \"a\" to be deleted")
	}
	if _, ok := fields["b"]; !ok {
		t.Fatal("expected \"b\" to survive")
	}
}
