package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Catalog is the ordered list of images reachable from a dataset root plus a
// cursor used for previous/next navigation.
//
// A dataset root holds flat image files and/or one level of class
// subdirectories, each optionally containing images. Catalog is not safe for
// concurrent use.
type Catalog struct {
	root    string
	classes []string
	paths   []string
	index   int
}

// OpenFolder scans a folder and builds a catalog.
//
// # Root Resolution
//
// If the folder has subdirectories it is itself the dataset root. Otherwise
// it is taken to be a class folder and its parent becomes the root. Images
// are collected from the opened folder, the root's flat files and every class
// subdirectory of the root, de-duplicated and sorted by path.
//
// An empty catalog is not an error; Current reports false until images exist.
func OpenFolder(folder string) (*Catalog, error) {
	folder = filepath.Clean(folder)
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to open folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", folder)
	}

	root, subdirs, err := resolveRoot(folder)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(dir string) error {
		files, err := imageFiles(dir)
		if err != nil {
			return err
		}
		for _, p := range files {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
		return nil
	}

	if err := add(folder); err != nil {
		return nil, err
	}
	if root != folder {
		if err := add(root); err != nil {
			return nil, err
		}
	}
	for _, name := range subdirs {
		if err := add(filepath.Join(root, name)); err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)

	return &Catalog{
		root:    root,
		classes: subdirs,
		paths:   paths,
	}, nil
}

// resolveRoot returns the dataset root for folder and the root's class
// subdirectories.
func resolveRoot(folder string) (string, []string, error) {
	subdirs, err := Subdirectories(folder)
	if err != nil {
		return "", nil, err
	}
	if len(subdirs) > 0 {
		return folder, subdirs, nil
	}
	root := filepath.Dir(folder)
	subdirs, err = Subdirectories(root)
	if err != nil {
		return "", nil, err
	}
	return root, subdirs, nil
}

// DatasetRoot returns the dataset root an image belongs to, resolved from
// the image's folder the same way OpenFolder resolves it: a folder with
// subdirectories is a root holding flat images, any other folder is a class
// folder under its parent.
func DatasetRoot(imagePath string) (string, error) {
	root, _, err := resolveRoot(filepath.Dir(filepath.Clean(imagePath)))
	return root, err
}

// Root returns the resolved dataset root.
func (c *Catalog) Root() string {
	return c.root
}

// Classes returns the sorted class folder names found under the root.
func (c *Catalog) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}

// Paths returns every catalogued image path in sorted order.
func (c *Catalog) Paths() []string {
	out := make([]string, len(c.paths))
	copy(out, c.paths)
	return out
}

// Len returns the number of catalogued images.
func (c *Catalog) Len() int {
	return len(c.paths)
}

// Current returns the image under the cursor.
func (c *Catalog) Current() (string, bool) {
	if len(c.paths) == 0 {
		return "", false
	}
	return c.paths[c.index], true
}

// Next advances the cursor, wrapping to the first image after the last.
func (c *Catalog) Next() (string, bool) {
	if len(c.paths) == 0 {
		return "", false
	}
	c.index = (c.index + 1) % len(c.paths)
	return c.paths[c.index], true
}

// Prev moves the cursor back, wrapping to the last image before the first.
func (c *Catalog) Prev() (string, bool) {
	if len(c.paths) == 0 {
		return "", false
	}
	c.index = (c.index - 1 + len(c.paths)) % len(c.paths)
	return c.paths[c.index], true
}

// Seek moves the cursor to the given path. It reports false if the path is
// not catalogued.
func (c *Catalog) Seek(path string) bool {
	for i, p := range c.paths {
		if p == path {
			c.index = i
			return true
		}
	}
	return false
}

// ClassOf returns the name of the folder directly containing path, which is
// the class name for images inside class subdirectories.
func ClassOf(path string) string {
	return filepath.Base(filepath.Dir(path))
}
