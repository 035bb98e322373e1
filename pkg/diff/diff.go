// Package diff renders compact line diffs for confirmation prompts.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxLines caps the rendered body. The output goes into interactive
// prompts, so long diffs truncate instead of flooding the terminal.
const maxLines = 40

// Unified renders a line-oriented diff from one content to another.
// Identical content yields the empty string.
func Unified(from, to []byte, fromLabel, toLabel string) string {
	if bytes.Equal(from, to) {
		return ""
	}

	dmp := diffmatchpatch.New()
	fromChars, toChars, lineIndex := dmp.DiffLinesToChars(string(from), string(to))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(fromChars, toChars, false), lineIndex)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", fromLabel, toLabel)

	emitted := 0
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if emitted == maxLines {
				b.WriteString("... (diff truncated)\n")
				return b.String()
			}
			b.WriteString(prefix + line + "\n")
			emitted++
		}
	}

	return b.String()
}
