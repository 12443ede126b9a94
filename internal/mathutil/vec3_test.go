package mathutil

import "testing"

func TestVec3Ops(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -5, 6}

	if got := a.Add(b); got != (Vec3{5, -3, 9}) {
		t.Fatalf("Add = %v", got)
	}
	if got := a.Sub(b); got != (Vec3{-3, 7, -3}) {
		t.Fatalf("Sub = %v", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Fatalf("Scale = %v", got)
	}
	if got := a.Dot(b); got != 4-10+18 {
		t.Fatalf("Dot = %v", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}

	if got := x.Cross(y); got != (Vec3{0, 0, 1}) {
		t.Fatalf("x cross y = %v, want +z", got)
	}
	if got := y.Cross(x); got != (Vec3{0, 0, -1}) {
		t.Fatalf("y cross x = %v, want -z", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}

	n := v.Normalize()
	if n != (Vec3{0.6, 0, 0.8}) {
		t.Fatalf("Normalize = %v", n)
	}
	if got := v.Len(); got != 5 {
		t.Fatalf("Len = %v, want 5", got)
	}

	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("zero vector normalized to %v", got)
	}
}
