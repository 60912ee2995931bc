package scenario

import (
	"fmt"
	"strings"
)

// FormatRaw renders cmd in the line based format accepted by ParseRaw.
// Policy and occupancy settings have no raw representation and are dropped.
func FormatRaw(cmd Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", cmd.Grid.MaxX, cmd.Grid.MaxY)
	for _, p := range cmd.Programs {
		fmt.Fprintf(&b, "%d %d %c\n%s\n", p.StartX, p.StartY, p.Orientation, p.Instructions)
	}
	return b.String()
}
