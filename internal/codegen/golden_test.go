package codegen

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestGeneratedScenarios pins the concrete end-to-end examples against
// recorded snapshots, so a change in emitted instruction shape shows up as
// a diff instead of silently passing a looser substring check.
func TestGeneratedScenarios(t *testing.T) {
	scenarios := []struct {
		name string
		src  string
	}{
		{
			name: "simple_addition",
			src:  `program p; var x: integer; begin x := 3 + 4 end.`,
		},
		{
			name: "for_loop_to",
			src:  `program p; var i: integer; begin for i := 1 to 3 do write(i) end.`,
		},
		{
			name: "function_call",
			src: `program p;
function sq(n: integer): integer;
begin sq := n * n end;
var x: integer;
begin x := sq(5) end.`,
		},
		{
			name: "string_char_compare",
			src:  `program p; var s: string; begin s := 'hi'; if s[1] = 'h' then write(1) end.`,
		},
		{
			name: "array_lower_bound_normalization",
			src:  `program p; var a: array[10..12] of integer; begin a[10] := 0 end.`,
		},
		{
			name: "dead_branch_elimination",
			src:  `program p; begin if true then write(1) else write(2) end.`,
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			lines, bag := compileToAsm(t, sc.src)
			if bag.HasErrors() {
				t.Fatalf("unexpected errors for %s: %v", sc.name, bag.Errors())
			}
			snaps.MatchSnapshot(t, strings.Join(lines, "\n"))
		})
	}
}
