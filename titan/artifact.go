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
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// Store maps workflow artifacts to deterministic filesystem paths under one
// sample's working directory.  Presence plus freshness of these paths is the
// only run state the workflow keeps; there is no separate bookkeeping.
type Store struct {
	// Dir is <workRoot>/structural/<sample>/titancna.
	Dir    string
	Sample string
}

// NewStore creates the working directory for sample under workRoot.
func NewStore(workRoot, sample string) (*Store, error) {
	dir := filepath.Join(workRoot, "structural", sample, "titancna")
	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, err
	}
	return &Store{Dir: dir, Sample: sample}, nil
}

// CNPath is the adapted copy-number file for the given source table.
func (s *Store) CNPath(cnrPath string) string {
	return filepath.Join(s.Dir, splitextPlus(filepath.Base(cnrPath))+".cn")
}

// HetPath is the heterozygous-site support table.
func (s *Store) HetPath() string {
	return filepath.Join(s.Dir, s.Sample+"-hets.txt")
}

// PloidyDir is the shared output directory for one swept ploidy.
func (s *Store) PloidyDir(ploidy int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("run_ploidy%d", ploidy))
}

// CellName is the per-cell file prefix used by the solver for its outputs.
func (s *Store) CellName(numClusters int) string {
	return fmt.Sprintf("%s_cluster%02d", s.Sample, numClusters)
}

// Sentinel is the completion marker for one sweep cell.  The cell is
// re-runnable until this file exists and is at least as new as the
// copy-number input.
func (s *Store) Sentinel(ploidy, numClusters int) string {
	return filepath.Join(s.PloidyDir(ploidy), s.CellName(numClusters)+".titan.txt")
}

// SolutionPath is the optimal-solution summary written by the selector.
func (s *Store) SolutionPath() string {
	return filepath.Join(s.Dir, "optimalClusters.txt")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fileUptodate reports whether out exists and is at least as new as in.  A
// missing or unreadable in counts as older, so a leftover output without its
// input is treated as valid.
func fileUptodate(out, in string) bool {
	ostat, err := os.Stat(out)
	if err != nil {
		return false
	}
	istat, err := os.Stat(in)
	if err != nil {
		return true
	}
	return !ostat.ModTime().Before(istat.ModTime())
}

// writeAtomic writes path through a temporary file in the same directory and
// renames it into place only after write returns successfully.  On any
// failure the temporary file is removed and path is left untouched.
func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	tmp, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close() // nolint: errcheck
			os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// splitextPlus strips one extension, or two when the outer one is a
// compression suffix, so "sample.cnr.gz" and "sample.cnr" both become
// "sample".
func splitextPlus(name string) string {
	switch filepath.Ext(name) {
	case ".gz", ".bz2", ".zip":
		name = name[:len(name)-len(filepath.Ext(name))]
	}
	return name[:len(name)-len(filepath.Ext(name))]
}
