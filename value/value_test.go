package value

import "testing"

func TestCmpStringLengthPrimary(t *testing.T) {
	// Shorter string always sorts before a longer one, regardless of
	// lexicographic content — this is the quirky, load-bearing rule from
	// spec.md §4.1.
	n, ok := Cmp(Str_("zz"), Str_("aaa"))
	if !ok {
		t.Fatal("expected defined comparison")
	}
	if n >= 0 {
		t.Fatalf("expected \"zz\" < \"aaa\" by length, got %d", n)
	}
}

func TestCmpStringAgainstNumberIsPlainCompare(t *testing.T) {
	// Str-vs-numeric does NOT use the length-primary rule: "99" is
	// lexicographically greater than "100" ('9' > '1') even though it is
	// shorter, matching jql.c's plain strcmp(lv->vstr, nbuf).
	n, ok := Cmp(Str_("99"), I64_(100))
	if !ok {
		t.Fatal("expected defined comparison")
	}
	if n <= 0 {
		t.Fatalf("expected \"99\" > 100 lexicographically, got %d", n)
	}

	n, ok = Cmp(Str_("99"), F64_(100))
	if !ok {
		t.Fatal("expected defined comparison")
	}
	if n <= 0 {
		t.Fatalf("expected \"99\" > 100.0 lexicographically, got %d", n)
	}
}

func TestCmpNullAsymmetry(t *testing.T) {
	// Null vs empty string is equal; Null vs non-empty string is less-than.
	if n, ok := Cmp(Null_(), Str_("")); !ok || n != 0 {
		t.Fatalf("Null vs \"\" = (%d, %v), want (0, true)", n, ok)
	}
	if n, ok := Cmp(Null_(), Str_("x")); !ok || n != -1 {
		t.Fatalf("Null vs \"x\" = (%d, %v), want (-1, true)", n, ok)
	}
	// Str vs Null is the mirror rule from the table: 0 iff left empty, else 1.
	if n, ok := Cmp(Str_(""), Null_()); !ok || n != 0 {
		t.Fatalf("\"\" vs Null = (%d, %v), want (0, true)", n, ok)
	}
	if n, ok := Cmp(Str_("x"), Null_()); !ok || n != 1 {
		t.Fatalf("\"x\" vs Null = (%d, %v), want (1, true)", n, ok)
	}
}

func TestCmpNumericWidening(t *testing.T) {
	if n, ok := Cmp(I64_(5), F64_(5.0)); !ok || n != 0 {
		t.Fatalf("I64(5) vs F64(5.0) = (%d, %v), want (0, true)", n, ok)
	}
	if n, ok := Cmp(F64_(4.5), I64_(4)); !ok || n != 1 {
		t.Fatalf("F64(4.5) vs I64(4) = (%d, %v), want (1, true)", n, ok)
	}
}

func TestCmpBoolCoercion(t *testing.T) {
	if n, ok := Cmp(Bool_(true), I64_(1)); !ok || n != 0 {
		t.Fatalf("true vs 1 = (%d, %v), want (0, true)", n, ok)
	}
	if n, ok := Cmp(Bool_(false), I64_(0)); !ok || n != 0 {
		t.Fatalf("false vs 0 = (%d, %v), want (0, true)", n, ok)
	}
	if n, ok := Cmp(I64_(2), Bool_(true)); !ok || n != 1 {
		t.Fatalf("2 vs true = (%d, %v), want (1, true)", n, ok)
	}
}

// TestCmpTotalityOnScalars is property P3: for every pair of scalar kinds,
// Cmp returns a deterministic signed integer (never panics, never flips
// sign across repeated calls).
func TestCmpTotalityOnScalars(t *testing.T) {
	vals := []Value{Str_("x"), I64_(1), F64_(1.5), Bool_(true), Null_()}
	for _, a := range vals {
		for _, b := range vals {
			n1, ok1 := Cmp(a, b)
			n2, ok2 := Cmp(a, b)
			if ok1 != ok2 || n1 != n2 {
				t.Fatalf("Cmp(%v, %v) not deterministic: (%d,%v) vs (%d,%v)", a, b, n1, ok1, n2, ok2)
			}
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Str_("5"), I64_(5)) {
		t.Fatal("\"5\" should equal 5 under decimal coercion")
	}
	if Equal(Str_("ab"), Str_("abc")) {
		t.Fatal("different-length strings must never be equal")
	}
}
