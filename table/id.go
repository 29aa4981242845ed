package table

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a table file. It is comparable and used as a cache key.
type ID struct {
	Level  int
	Number uint64
}

// String returns the blob name of the table.
func (id ID) String() string {
	return fmt.Sprintf("L%d/%06d.sct", id.Level, id.Number)
}

// Compare orders IDs by level, then file number.
func (id ID) Compare(other ID) int {
	if r := cmp.Compare(id.Level, other.Level); r != 0 {
		return r
	}
	return cmp.Compare(id.Number, other.Number)
}

// ParseID parses a blob name produced by ID.String.
func ParseID(name string) (ID, error) {
	level, file, ok := strings.Cut(name, "/")
	num, isTable := strings.CutSuffix(file, ".sct")
	if !ok || !isTable || !strings.HasPrefix(level, "L") {
		return ID{}, fmt.Errorf("invalid table name %q", name)
	}
	l, err := strconv.Atoi(level[1:])
	if err != nil || l < 0 {
		return ID{}, fmt.Errorf("invalid table level in %q", name)
	}
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid table number in %q: %w", name, err)
	}
	return ID{Level: l, Number: n}, nil
}
