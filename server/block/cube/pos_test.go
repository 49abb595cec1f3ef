package cube

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPosFromVec3FloorsNegative(t *testing.T) {
	cases := map[mgl64.Vec3]Pos{
		{0.5, 64.9, 0.1}:   {0, 64, 0},
		{-0.5, -1, -15.01}: {-1, -1, -16},
		{16, 0, -16}:       {16, 0, -16},
	}
	for in, want := range cases {
		if got := PosFromVec3(in); got != want {
			t.Fatalf("PosFromVec3(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPosDistSqr(t *testing.T) {
	a, b := Pos{0, 0, 0}, Pos{3, 4, 12}
	if got := a.DistSqr(b); got != 169 {
		t.Fatalf("expected squared distance 169, got %d", got)
	}
	if got := b.DistSqr(a); got != 169 {
		t.Fatalf("expected symmetric squared distance 169, got %d", got)
	}
}

func TestPosOutOfBounds(t *testing.T) {
	r := Range{-64, 319}
	if (Pos{0, -64, 0}).OutOfBounds(r) {
		t.Fatal("expected minimum height to be in bounds")
	}
	if !(Pos{0, 320, 0}).OutOfBounds(r) {
		t.Fatal("expected y=320 to be out of bounds")
	}
}
