package world

import (
	"testing"

	"github.com/dm-vev/adamant-poi/server/block/cube"
)

func TestSectionKeyRoundTrip(t *testing.T) {
	positions := []SectionPos{
		{0, 0, 0},
		{1, -4, -1},
		{-1, 19, 1},
		{1<<21 - 1, 1<<19 - 1, -(1 << 21)},
		{-(1 << 21), -(1 << 19), 1<<21 - 1},
		{1875000, -4, -1875000},
	}
	for _, pos := range positions {
		if got := pos.Key().Pos(); got != pos {
			t.Fatalf("expected %v to survive packing, got %v", pos, got)
		}
	}
}

func TestSectionKeyLayout(t *testing.T) {
	key := SectionPos{1, 2, 3}.Key()
	if want := SectionKey(1 | 3<<22 | 2<<44); key != want {
		t.Fatalf("expected key %#x, got %#x", int64(want), int64(key))
	}
}

func TestSectionKeyOffset(t *testing.T) {
	key := SectionPos{-1, 0, 5}.Key()
	if got := key.Offset(1, -1, -6).Pos(); got != (SectionPos{0, -1, -1}) {
		t.Fatalf("expected offset section (0,-1,-1), got %v", got)
	}
}

func TestSectionPosOfNegativeBlocks(t *testing.T) {
	cases := map[cube.Pos]SectionPos{
		{0, 0, 0}:      {0, 0, 0},
		{15, 15, 15}:   {0, 0, 0},
		{16, -1, -16}:  {1, -1, -1},
		{-17, -64, 31}: {-2, -4, 1},
	}
	for pos, want := range cases {
		if got := SectionPosOf(pos); got != want {
			t.Fatalf("SectionPosOf(%v) = %v, want %v", pos, got, want)
		}
	}
	if got := SectionPosOf(cube.Pos{-17, 3, 31}).MinBlock(); got != (cube.Pos{-32, 0, 16}) {
		t.Fatalf("expected section min block (-32,0,16), got %v", got)
	}
}

func TestSectionRange(t *testing.T) {
	minY, maxY := SectionRange(cube.Range{-64, 319})
	if minY != -4 || maxY != 19 {
		t.Fatalf("expected sections -4..19, got %d..%d", minY, maxY)
	}
}
