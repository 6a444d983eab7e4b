package label

import (
	"fmt"

	"github.com/ironsheep/leaf-label-tools/internal/imaging"
)

// Classes is the ordered class registry of a dataset root: the sorted names
// of its immediate subdirectories. A class id is an index into it.
type Classes []string

// LoadClasses lists the class folders under root. The result is read fresh
// from disk on every call.
func LoadClasses(root string) (Classes, error) {
	names, err := imaging.Subdirectories(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return Classes(names), nil
}

// ID returns the index of name, or 0 when name is not a class.
func (c Classes) ID(name string) int {
	for i, n := range c {
		if n == name {
			return i
		}
	}
	return 0
}

// Contains reports whether name is a class.
func (c Classes) Contains(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// ResolveClassID re-reads the class folders under root and returns the id of
// name, defaulting to 0 when name is not among them.
func ResolveClassID(root, name string) (int, error) {
	classes, err := LoadClasses(root)
	if err != nil {
		return 0, err
	}
	return classes.ID(name), nil
}
