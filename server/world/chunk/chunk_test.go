package chunk

import (
	"testing"

	"github.com/dm-vev/adamant-poi/server/block/cube"
)

func TestChunkSetBlockNegativeHeight(t *testing.T) {
	c := New(0, cube.Range{-64, 319})
	if got := len(c.Sub()); got != 24 {
		t.Fatalf("expected 24 sub chunks, got %d", got)
	}
	c.SetBlock(3, -61, 15, 7)
	if got := c.Block(3, -61, 15); got != 7 {
		t.Fatalf("expected runtime ID 7, got %d", got)
	}
	if got := c.SubIndex(-61); got != 0 {
		t.Fatalf("expected sub index 0, got %d", got)
	}
	if got := c.SubY(0); got != -4 {
		t.Fatalf("expected section Y -4 for index 0, got %d", got)
	}
	if got := c.Block(3, -62, 15); got != 0 {
		t.Fatalf("expected air below the block, got %d", got)
	}
}

func TestSubChunkMaybeHas(t *testing.T) {
	sub := NewSubChunk(0)
	isBed := func(rid uint32) bool { return rid == 5 }
	if sub.MaybeHas(isBed) {
		t.Fatal("expected empty sub chunk not to contain a bed")
	}
	sub.SetBlock(1, 2, 3, 5)
	if !sub.MaybeHas(isBed) {
		t.Fatal("expected palette to report a bed after placing one")
	}
	sub.SetBlock(1, 2, 3, 0)
	if !sub.MaybeHas(isBed) {
		t.Fatal("expected stale palette entry to remain until Compact")
	}
	sub.Compact()
	if sub.MaybeHas(isBed) {
		t.Fatal("expected Compact to remove the unused bed entry")
	}
	if !sub.Empty() {
		t.Fatal("expected compacted sub chunk to be empty")
	}
}

func TestSubChunkCompactKeepsBlocks(t *testing.T) {
	sub := NewSubChunk(0)
	sub.SetBlock(0, 0, 0, 4)
	sub.SetBlock(1, 0, 0, 9)
	sub.SetBlock(2, 0, 0, 11)
	sub.SetBlock(1, 0, 0, 0)
	sub.Compact()
	if got := len(sub.Palette()); got != 3 {
		t.Fatalf("expected palette of 3 entries, got %d", got)
	}
	if sub.Block(0, 0, 0) != 4 || sub.Block(2, 0, 0) != 11 || sub.Block(1, 0, 0) != 0 {
		t.Fatalf("unexpected blocks after compaction: %d %d %d", sub.Block(0, 0, 0), sub.Block(1, 0, 0), sub.Block(2, 0, 0))
	}
}
