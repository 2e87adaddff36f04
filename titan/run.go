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
	"bufio"
	"context"
	"os"

	"github.com/grailbio/base/log"
)

// Workflow ties one sample's artifact store to the external-tool and
// site-extraction collaborators.  Collaborators are plain fields so tests
// can substitute fakes.
type Workflow struct {
	Store     *Store
	Runner    Runner
	Extractor SiteExtractor
	Opts      Opts
}

// New builds a Workflow for one tumor sample rooted at workRoot, with the
// default subprocess runner and VCF site extractor.
func New(workRoot, sample string, opts Opts) (*Workflow, error) {
	store, err := NewStore(workRoot, sample)
	if err != nil {
		return nil, err
	}
	return &Workflow{
		Store:     store,
		Runner:    ExecRunner{},
		Extractor: &VCFExtractor{},
		Opts:      opts,
	}, nil
}

// Run processes one batch of samples.  Batches without a somatic
// tumor/normal pairing, and pairs without enough heterozygous sites to fit
// subclonal populations, pass through unchanged.  Otherwise the full
// pipeline runs and the tumor sample comes back with a titancna Result
// appended to its SV list, preceded by the untouched normal sample when one
// is present.
func Run(ctx context.Context, workRoot string, items []*Sample, opts Opts) ([]*Sample, error) {
	pair := GetPaired(items)
	if pair == nil {
		log.Printf("skipping titancna; no somatic tumor calls in batch: %s", sampleNames(items))
		return items, nil
	}
	w, err := New(workRoot, pair.Tumor.Name, opts)
	if err != nil {
		return nil, err
	}
	return w.Run(ctx, pair, items)
}

// Run is the collaborator-injectable form of the package-level Run, applied
// to an already-extracted pair.
func (w *Workflow) Run(ctx context.Context, pair *Pair, items []*Sample) ([]*Sample, error) {
	if pair == nil {
		log.Printf("skipping titancna; no somatic tumor calls in batch: %s", sampleNames(items))
		return items, nil
	}
	cnFile, err := w.PrepareCopyNumberFile(ctx, pair.Tumor.NormalizedCoverage)
	if err != nil {
		return nil, err
	}
	hetFile, err := w.PrepareHetSiteFile(ctx, pair.Tumor.Variants)
	if err != nil {
		return nil, err
	}
	ok, err := hasHetSites(hetFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("skipping titancna; not enough input data: %s", sampleNames(items))
		return items, nil
	}
	runs, err := w.RunSweep(ctx, cnFile, hetFile)
	if err != nil {
		return nil, err
	}
	solutionFile, err := w.SelectSolution(ctx, runs)
	if err != nil {
		return nil, err
	}
	result, err := w.Finalize(ctx, solutionFile)
	if err != nil {
		return nil, err
	}
	out := make([]*Sample, 0, 2)
	if pair.Normal != nil {
		out = append(out, pair.Normal)
	}
	pair.Tumor.SV = append(pair.Tumor.SV, result)
	out = append(out, pair.Tumor)
	return out, nil
}

// hasHetSites reports whether the het file holds at least two data rows
// beyond its header.  Fewer sites leave the fit without statistical power,
// and the workflow skips the sample entirely.
func hasHetSites(hetFile string) (bool, error) {
	f, err := os.Open(hetFile)
	if err != nil {
		return false, err
	}
	defer f.Close() // nolint: errcheck
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
		if lines > 2 {
			return true, nil
		}
	}
	return false, sc.Err()
}

func sampleNames(items []*Sample) string {
	names := ""
	for i, s := range items {
		if i > 0 {
			names += " "
		}
		names += s.Name
	}
	return names
}
