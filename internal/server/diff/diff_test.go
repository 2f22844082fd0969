package diff

import (
	"strings"
	"testing"
)

func TestCompute_Identical(t *testing.T) {
	blocks := Compute("a\nb\n", "a\nb\n")
	if len(blocks) != 1 || blocks[0].Op != OpEqual {
		t.Fatalf("want one equal block, got %+v", blocks)
	}
	if strings.Join(blocks[0].Lines, "|") != "a|b" {
		t.Fatalf("unexpected lines: %q", blocks[0].Lines)
	}
}

func TestCompute_PureInsertAndDelete(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want []Op
	}{
		{"append line", "a\n", "a\nb\n", []Op{OpEqual, OpInsert}},
		{"drop line", "a\nb\n", "a\n", []Op{OpEqual, OpDelete}},
		{"from empty", "", "x\n", []Op{OpInsert}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Compute(tt.old, tt.new)
			if len(blocks) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(tt.want), blocks)
			}
			for i, op := range tt.want {
				if blocks[i].Op != op {
					t.Fatalf("block %d op = %s, want %s", i, blocks[i].Op, op)
				}
			}
		})
	}
}

func TestCompute_DeleteThenInsertBecomesChanged(t *testing.T) {
	blocks := Compute("title\nthe quick fox\nend\n", "title\nthe slow fox\nend\n")

	if len(blocks) != 3 {
		t.Fatalf("want 3 blocks, got %+v", blocks)
	}
	c := blocks[1]
	if c.Op != OpChanged {
		t.Fatalf("middle block op = %s, want changed", c.Op)
	}
	if c.Old[0] != "the quick fox" || c.New[0] != "the slow fox" {
		t.Fatalf("unexpected old/new: %q %q", c.Old, c.New)
	}

	var removed, added string
	for _, p := range c.Parts {
		switch p.Op {
		case OpDelete:
			removed += p.Text
		case OpInsert:
			added += p.Text
		}
	}
	if !strings.Contains(removed, "quick") || !strings.Contains(added, "slow") {
		t.Fatalf("inline parts miss the edit: %+v", c.Parts)
	}
}
