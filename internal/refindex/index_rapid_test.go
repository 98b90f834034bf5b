package refindex

import (
	"testing"

	"github.com/masmgr/refscan-go/internal/export"
	"pgregory.net/rapid"
)

// --- Generators ---

func genRange() *rapid.Generator[LineRange] {
	return rapid.Custom(func(t *rapid.T) LineRange {
		start := rapid.IntRange(1, 500).Draw(t, "start")
		return LineRange{Start: start, End: start + rapid.IntRange(0, 50).Draw(t, "span")}
	})
}

// --- Property Tests ---

func TestRapidCovered_LinesInsideRangeAreCovered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ranges := rapid.SliceOfN(genRange(), 1, 10).Draw(t, "ranges")
		r := rapid.SampledFrom(ranges).Draw(t, "chosen")
		lines := rapid.SliceOfN(rapid.IntRange(r.Start, r.End), 1, 10).Draw(t, "lines")

		if !Covered(ranges, lines) {
			t.Fatalf("lines %v inside %+v not covered", lines, r)
		}
	})
}

func TestRapidCovered_LineOutsideAllRangesIsNotCovered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ranges := rapid.SliceOfN(genRange(), 1, 10).Draw(t, "ranges")
		outside := 0
		for _, r := range ranges {
			outside = max(outside, r.End+1)
		}
		lines := append(rapid.SliceOf(rapid.IntRange(1, 600)).Draw(t, "lines"), outside)

		if Covered(ranges, lines) {
			t.Fatalf("line %d lies outside %v but was covered", outside, ranges)
		}
	})
}

func TestRapidIndex_CoversMatchesCovered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) export.RevisionRefactor {
			r := genRange().Draw(t, "range")
			return export.RevisionRefactor{
				Revision:  rapid.SampledFrom([]string{"r1", "r2"}).Draw(t, "rev"),
				FileName:  rapid.SampledFrom([]string{"A.java", "B.java"}).Draw(t, "file"),
				RefType:   "EXTRACT",
				StartLine: r.Start,
				EndLine:   r.End,
			}
		}), 0, 20).Draw(t, "rows")
		lines := rapid.SliceOfN(rapid.IntRange(1, 600), 1, 5).Draw(t, "lines")

		idx := New(rows)
		for _, rev := range []string{"r1", "r2"} {
			for _, file := range []string{"A.java", "B.java"} {
				var ranges []LineRange
				for _, row := range rows {
					if row.Revision == rev && row.FileName == file {
						ranges = append(ranges, LineRange{Start: row.StartLine, End: row.EndLine})
					}
				}
				if got, want := idx.Covers(rev, file, lines...), Covered(ranges, lines); got != want {
					t.Fatalf("Covers(%s, %s, %v) = %v, expected %v", rev, file, lines, got, want)
				}
			}
		}
	})
}
