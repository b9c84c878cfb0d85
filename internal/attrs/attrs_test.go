package attrs

import (
	"encoding/json"
	"testing"
)

func TestSetGetRoundTrip(t *testing.T) {
	a := New()
	a.SetInt("offset", 42)
	a.SetString("name", "layer1")
	a.SetFloat("opacity", 0.5)

	if got := a.Int("offset", -1); got != 42 {
		t.Fatalf("Int() = %d, want 42", got)
	}
	if got := a.String("name", ""); got != "layer1" {
		t.Fatalf("String() = %q, want layer1", got)
	}
	if got := a.Float("opacity", -1); got != 0.5 {
		t.Fatalf("Float() = %v, want 0.5", got)
	}
}

func TestTypedAccessorDefaultsOnKindMismatch(t *testing.T) {
	a := New()
	a.SetString("offset", "not-an-int")
	if got := a.Int("offset", 7); got != 7 {
		t.Fatalf("Int() = %d, want default 7 on kind mismatch", got)
	}
}

func TestOrderPreservedAcrossUpdates(t *testing.T) {
	a := New()
	a.SetInt("a", 1)
	a.SetInt("b", 2)
	a.SetInt("c", 3)
	a.SetInt("b", 20) // update, not move

	want := []string{"a", "b", "c"}
	got := a.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestDeleteRemovesKeyAndReindexes(t *testing.T) {
	a := New()
	a.SetInt("a", 1)
	a.SetInt("b", 2)
	a.SetInt("c", 3)
	a.Delete("b")

	if _, ok := a.Get("b"); ok {
		t.Fatal("expected b to be deleted")
	}
	if got := a.Int("c", -1); got != 3 {
		t.Fatalf("Int(c) = %d, want 3 after deleting b", got)
	}
	if len(a.Keys()) != 2 {
		t.Fatalf("Keys() len = %d, want 2", len(a.Keys()))
	}
}

func TestDirtyBitLifecycle(t *testing.T) {
	a := New()
	if a.Dirty() {
		t.Fatal("new Attrs should not be dirty")
	}
	a.SetBool("flag", true)
	if !a.Dirty() {
		t.Fatal("expected Set to mark dirty")
	}
	a.ClearDirty()
	if a.Dirty() {
		t.Fatal("expected ClearDirty to reset the dirty bit")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a := New()
	a.SetInt("frame", 10)
	a.SetString("path", "/seq/####.exr")
	a.Set("tint", Value{Kind: KindVec4, Vec4: Vec4{1, 0, 0, 1}})
	a.SetList("radii", []Value{
		{Kind: KindFloat, Float: 1},
		{Kind: KindFloat, Float: 2},
		{Kind: KindFloat, Float: 3},
	})

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	b := New()
	if err := json.Unmarshal(data, b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got := b.Int("frame", -1); got != 10 {
		t.Fatalf("frame = %d, want 10", got)
	}
	if got := b.String("path", ""); got != "/seq/####.exr" {
		t.Fatalf("path = %q, want /seq/####.exr", got)
	}
	tint, ok := b.Get("tint")
	if !ok || tint.Kind != KindVec4 || tint.Vec4 != (Vec4{1, 0, 0, 1}) {
		t.Fatalf("tint = %+v, want Vec4{1,0,0,1}", tint)
	}
	radii, ok := b.Get("radii")
	if !ok || radii.Kind != KindList || len(radii.List) != 3 {
		t.Fatalf("radii = %+v, want 3-element list", radii)
	}
	if b.Dirty() {
		t.Fatal("unmarshaled Attrs should start clean")
	}
	if len(b.Keys()) != len(a.Keys()) {
		t.Fatalf("Keys() len = %d, want %d (order preserved)", len(b.Keys()), len(a.Keys()))
	}
}
