// Package diff compares the content of two revisions line by line. A run of
// deleted lines directly followed by inserted lines is reported as one
// "changed" block that also carries a character level diff of the run.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type Op string

const (
	OpEqual   Op = "equal"
	OpInsert  Op = "insert"
	OpDelete  Op = "delete"
	OpChanged Op = "changed"
)

// Part is one fragment of an inline diff inside a changed block.
type Part struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Block is a run of lines sharing one Op. Equal, insert and delete blocks
// fill Lines; changed blocks fill Old, New and Parts.
type Block struct {
	Op    Op       `json:"op"`
	Lines []string `json:"lines,omitempty"`
	Old   []string `json:"old,omitempty"`
	New   []string `json:"new,omitempty"`
	Parts []Part   `json:"parts,omitempty"`
}

// Compute returns the blocks turning oldContent into newContent.
func Compute(oldContent, newContent string) []Block {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	blocks := make([]Block, 0, len(diffs))
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			blocks = append(blocks, Block{Op: OpEqual, Lines: splitLines(d.Text)})
		case diffmatchpatch.DiffInsert:
			blocks = append(blocks, Block{Op: OpInsert, Lines: splitLines(d.Text)})
		case diffmatchpatch.DiffDelete:
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				blocks = append(blocks, changed(dmp, d.Text, diffs[i+1].Text))
				i++
				continue
			}
			blocks = append(blocks, Block{Op: OpDelete, Lines: splitLines(d.Text)})
		}
	}
	return blocks
}

func changed(dmp *diffmatchpatch.DiffMatchPatch, oldText, newText string) Block {
	inline := dmp.DiffCleanupSemantic(dmp.DiffMain(oldText, newText, false))

	parts := make([]Part, 0, len(inline))
	for _, d := range inline {
		parts = append(parts, Part{Op: opOf(d.Type), Text: d.Text})
	}
	return Block{
		Op:    OpChanged,
		Old:   splitLines(oldText),
		New:   splitLines(newText),
		Parts: parts,
	}
}

func opOf(t diffmatchpatch.Operation) Op {
	switch t {
	case diffmatchpatch.DiffInsert:
		return OpInsert
	case diffmatchpatch.DiffDelete:
		return OpDelete
	default:
		return OpEqual
	}
}

// splitLines drops the trailing newline so it does not yield an empty line.
func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
