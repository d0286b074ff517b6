// Package local reads expense exports from disk.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mfdash/internal/loader"
	ports "mfdash/internal/sheets"
)

var _ ports.Source = (*Dir)(nil)

// Dir is a Source over the *.csv files of one directory.
type Dir struct {
	path string
}

func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Name() string {
	return "dir:" + d.path
}

// Fetch returns the CSV files sorted by name. Subdirectories and other
// files are ignored; a missing directory is an error.
func (d *Dir) Fetch(ctx context.Context) ([]loader.Input, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	inputs := make([]loader.Input, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(d.path, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		inputs = append(inputs, loader.Input{Name: name, Data: data})
	}
	return inputs, nil
}

var _ ports.Source = Files(nil)

// Files is a Source over explicit paths, read in the given order.
type Files []string

func (f Files) Name() string {
	return "files:" + strings.Join(f, ",")
}

func (f Files) Fetch(ctx context.Context) ([]loader.Input, error) {
	inputs := make([]loader.Input, 0, len(f))
	for _, path := range f {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		inputs = append(inputs, loader.Input{Name: filepath.Base(path), Data: data})
	}
	return inputs, nil
}
