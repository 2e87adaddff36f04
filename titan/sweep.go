// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package titan

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
)

// PloidyRun records the shared output directory for one swept ploidy.  The
// directory holds the outputs of every cluster count run at that ploidy.
type PloidyRun struct {
	Ploidy int
	Dir    string
}

// RunSweep executes the solver across the full ploidy x cluster-count grid.
// Cells are mutually independent and run concurrently up to the core
// budget, with each cell's --numCores request divided so the total stays
// within it.  All cells must complete before solution selection; the first
// cell failure aborts the sweep.
func (w *Workflow) RunSweep(ctx context.Context, cnFile, hetFile string) ([]PloidyRun, error) {
	type cell struct{ ploidy, numClusters int }
	var cells []cell
	for _, p := range w.Opts.Ploidies {
		for _, k := range w.Opts.NumClusters {
			cells = append(cells, cell{p, k})
		}
	}
	parallelism := w.Opts.Cores
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > len(cells) {
		parallelism = len(cells)
	}
	cellCores := w.Opts.Cores / parallelism
	if cellCores < 1 {
		cellCores = 1
	}
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(cells)) / parallelism
		endIdx := ((jobIdx + 1) * len(cells)) / parallelism
		for _, c := range cells[startIdx:endIdx] {
			if _, err := w.RunSweepCell(ctx, cnFile, hetFile, c.ploidy, c.numClusters, cellCores); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	runs := make([]PloidyRun, 0, len(w.Opts.Ploidies))
	for _, p := range w.Opts.Ploidies {
		runs = append(runs, PloidyRun{Ploidy: p, Dir: w.Store.PloidyDir(p)})
	}
	return runs, nil
}

// RunSweepCell runs the solver for one (ploidy, numClusters) hypothesis and
// returns the ploidy directory its outputs were moved into.  The cell is
// skipped when its completion sentinel is already at least as new as
// cnFile.  The solver writes into a scratch directory that is removed on
// every exit path; outputs land in the ploidy directory only via rename, so
// a killed run leaves no partial cell outputs behind.
func (w *Workflow) RunSweepCell(ctx context.Context, cnFile, hetFile string, ploidy, numClusters, numCores int) (string, error) {
	ploidyDir := w.Store.PloidyDir(ploidy)
	if err := os.MkdirAll(ploidyDir, 0775); err != nil {
		return "", err
	}
	cellName := w.Store.CellName(numClusters)
	if fileUptodate(w.Store.Sentinel(ploidy, numClusters), cnFile) {
		return ploidyDir, nil
	}
	// Scratch lives under the store so the renames below stay on one
	// filesystem.
	tmpDir, err := ioutil.TempDir(w.Store.Dir, "sweep-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir) // nolint: errcheck
	desc := fmt.Sprintf("titancna sweep: ploidy %d, clusters %d", ploidy, numClusters)
	err = w.Runner.Run(ctx, tmpDir, desc, w.Opts.SolverScript,
		"--id", w.Store.Sample,
		"--hetFile", hetFile,
		"--cnFile", cnFile,
		"--numClusters", strconv.Itoa(numClusters),
		"--ploidy", strconv.Itoa(ploidy),
		"--numCores", strconv.Itoa(numCores),
		"--outDir", tmpDir)
	if err != nil {
		return "", errors.E(err, fmt.Sprintf("sweep cell failed: ploidy %d, clusters %d", ploidy, numClusters))
	}
	matches, err := filepath.Glob(filepath.Join(tmpDir, cellName+"*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if err := os.Rename(m, filepath.Join(ploidyDir, filepath.Base(m))); err != nil {
			return "", err
		}
	}
	// The diagnostic plot has a fixed name; embed the cell name so cells
	// sharing the ploidy directory do not clobber each other.
	plot := filepath.Join(tmpDir, "Rplots.pdf")
	if fileExists(plot) {
		if err := os.Rename(plot, filepath.Join(ploidyDir, cellName+".Rplots.pdf")); err != nil {
			return "", err
		}
	}
	return ploidyDir, nil
}
