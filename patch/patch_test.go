package patch

import (
	"testing"

	"github.com/jqlang/jql/doc"
)

func TestApplyAddAndReplace(t *testing.T) {
	root, err := doc.FromJSON([]byte(`{"name":"A","age":7}`))
	if err != nil {
		t.Fatal(err)
	}
	patchDoc := []byte(`[
		{"op":"replace","path":"/age","value":8},
		{"op":"add","path":"/tag","value":"x"}
	]`)

	pool := NewPool()
	out, err := Apply(root, patchDoc, pool)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	js, err := doc.ToJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	result, err := doc.FromJSON(js)
	if err != nil {
		t.Fatal(err)
	}
	got, err := doc.ToJSON(result)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"age":8,"name":"A","tag":"x"}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestApplyInvalidPatchErrors(t *testing.T) {
	root, _ := doc.FromJSON([]byte(`{}`))
	if _, err := Apply(root, []byte(`not json`), nil); err == nil {
		t.Fatal("expected error for invalid patch document")
	}
}
