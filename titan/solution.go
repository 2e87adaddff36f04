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
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// SelectSolution scores the sweep outputs and writes the optimal-solution
// summary.  If the summary already exists it is returned as-is; the selector
// is never re-invoked over a previous result.  The selector writes to a
// temporary path which becomes visible only on success.
func (w *Workflow) SelectSolution(ctx context.Context, runs []PloidyRun) (string, error) {
	outPath := w.Store.SolutionPath()
	if fileExists(outPath) {
		return outPath, nil
	}
	tmp, err := ioutil.TempFile(w.Store.Dir, filepath.Base(outPath)+".tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return "", err
	}
	args := make([]string, 0, len(runs)+1)
	for _, r := range runs {
		args = append(args, fmt.Sprintf("--ploidyRun%d=%s", r.Ploidy, r.Dir))
	}
	args = append(args, "--outFile="+tmpPath)
	err = w.Runner.Run(ctx, w.Store.Dir, "titancna: select optimal solution", w.Opts.SelectScript, args...)
	if err != nil {
		os.Remove(tmpPath) // nolint: errcheck
		return "", errors.E(err, "solution selection failed")
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// Solution is the parsed optimal-solution summary.  Purity and Ploidy stay
// as the selector's verbatim strings.
type Solution struct {
	Purity string
	Ploidy string
	// CellPrev holds one cellular-prevalence fraction per subclone.
	CellPrev []string
	// Path is the chosen solution's output prefix; per-solution files hang
	// off it (<Path>.segs.txt and the diagnostic plots).
	Path string
	// Plots lists the diagnostic PDFs that exist on disk.
	Plots []string
}

// solutionRow mirrors the selector's single-row summary.  Decoding fails
// fast if any required column is missing from the header.
type solutionRow struct {
	Purity   string `tsv:"purity"`
	Ploidy   string `tsv:"ploidy"`
	CellPrev string `tsv:"cellPrev"`
	Path     string `tsv:"path"`
}

// plotSuffixes are the diagnostic plots a solution may have, relative to
// its output prefix.
func plotSuffixes(base string) []string {
	return []string{
		".Rplots.pdf",
		"/" + base + "_CF.pdf",
		"/" + base + "_CNA.pdf",
		"/" + base + "_LOH.pdf",
	}
}

// ParseSolution reads the selector's summary: a header line and a single
// value line, tab-delimited.  Plot paths are included only when the file
// actually exists.
func ParseSolution(path string) (Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return Solution{}, err
	}
	defer f.Close() // nolint: errcheck
	r := tsv.NewReader(f)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	var row solutionRow
	if err := r.Read(&row); err != nil {
		return Solution{}, errors.E(err, fmt.Sprintf("parsing solution summary %s", path))
	}
	sol := Solution{Purity: row.Purity, Ploidy: row.Ploidy, Path: row.Path}
	for _, p := range strings.Split(row.CellPrev, ",") {
		sol.CellPrev = append(sol.CellPrev, strings.TrimSpace(p))
	}
	base := filepath.Base(row.Path)
	for _, suffix := range plotSuffixes(base) {
		if fileExists(row.Path + suffix) {
			sol.Plots = append(sol.Plots, row.Path+suffix)
		}
	}
	return sol, nil
}

// Finalize parses the chosen solution and renders its segment table as a
// compressed, indexed VCF.
func (w *Workflow) Finalize(ctx context.Context, solutionFile string) (*Result, error) {
	sol, err := ParseSolution(solutionFile)
	if err != nil {
		return nil, err
	}
	segsPath := sol.Path + ".segs.txt"
	vcfPath, err := w.SegsToVCF(ctx, segsPath)
	if err != nil {
		return nil, err
	}
	return &Result{
		Caller:             Caller,
		Purity:             sol.Purity,
		Ploidy:             sol.Ploidy,
		CellularPrevalence: sol.CellPrev,
		Plots:              sol.Plots,
		Subclones:          segsPath,
		VariantFile:        vcfPath,
	}, nil
}
