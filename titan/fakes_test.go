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
package titan_test

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/titancna/titan"
	"github.com/pkg/errors"
)

type toolCall struct {
	dir, desc, name string
	args            []string
}

// fakeRunner emulates the TitanCNA scripts and tabix well enough for the
// workflow's file contract: the solver drops cell-prefixed outputs plus
// Rplots.pdf in --outDir, the selector writes a two-line summary to
// --outFile, and tabix touches the index.
type fakeRunner struct {
	mu    sync.Mutex
	calls []toolCall
	// failDesc, when non-empty, fails any invocation whose description
	// contains it.
	failDesc string
	// solutionPath is the output prefix the selector reports; segsRows are
	// the segment-table rows every solver invocation writes.
	solutionPath string
	segsRows     []string
}

const segsHeader = "Chromosome\tStart_Position.bp.\tEnd_Position.bp.\tCopy_Number\tMajorCN\tMinorCN\tMedian_logR\tTITAN_call"

func defaultSegsRows() []string {
	return []string{
		"1\t1001\t5000\t1\t1\t0\t-0.58\tDLOH",
		"2\t2001\t9000\t3\t2\t1\t0.41\tGAIN",
	}
}

func argValue(args []string, name string) string {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, name+"=") {
			return a[len(name)+1:]
		}
	}
	return ""
}

func (r *fakeRunner) Run(_ context.Context, dir, desc, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, toolCall{dir: dir, desc: desc, name: name, args: args})
	r.mu.Unlock()
	if r.failDesc != "" && strings.Contains(desc, r.failDesc) {
		return errors.Errorf("%s: exit status 1", desc)
	}
	switch name {
	case titan.DefaultOpts.SolverScript:
		outDir := argValue(args, "--outDir")
		id := argValue(args, "--id")
		numClusters, err := strconv.Atoi(argValue(args, "--numClusters"))
		if err != nil {
			return err
		}
		cell := fmt.Sprintf("%s_cluster%02d", id, numClusters)
		rows := r.segsRows
		if rows == nil {
			rows = defaultSegsRows()
		}
		segs := segsHeader + "\n" + strings.Join(rows, "\n") + "\n"
		for file, body := range map[string]string{
			cell + ".titan.txt":  "titan\n",
			cell + ".params.txt": "params\n",
			cell + ".segs.txt":   segs,
			"Rplots.pdf":         "%PDF\n",
		} {
			if err := ioutil.WriteFile(filepath.Join(outDir, file), []byte(body), 0666); err != nil {
				return err
			}
		}
	case titan.DefaultOpts.SelectScript:
		outFile := argValue(args, "--outFile")
		body := "purity\tploidy\tcellPrev\tpath\n" +
			"0.4\t2.1\t0.3, 0.7\t" + r.solutionPath + "\n"
		return ioutil.WriteFile(outFile, []byte(body), 0666)
	case titan.DefaultOpts.Tabix:
		gz := args[len(args)-1]
		return ioutil.WriteFile(gz+".tbi", []byte("tbi\n"), 0666)
	}
	return nil
}

func (r *fakeRunner) countCalls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func (r *fakeRunner) callsFor(name string) []toolCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []toolCall
	for _, c := range r.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// fakeExtractor emits a fixed site list regardless of source.
type fakeExtractor struct {
	sites []titan.HetSite
}

func (e *fakeExtractor) Sites(_ context.Context, _ titan.VariantSource, emit func(titan.HetSite) error) error {
	for _, s := range e.sites {
		if err := emit(s); err != nil {
			return err
		}
	}
	return nil
}

func testSites(n int) []titan.HetSite {
	sites := make([]titan.HetSite, 0, n)
	for i := 0; i < n; i++ {
		sites = append(sites, titan.HetSite{
			Chrom:    "1",
			Pos:      1000 + i,
			Ref:      "A",
			Alt:      "G",
			Depth:    30 + i,
			AltCount: 14,
			Qual:     "99",
		})
	}
	return sites
}

// newTestWorkflow builds a workflow over a temp root with fake
// collaborators installed.
func newTestWorkflow(workRoot string, runner *fakeRunner, sites int) (*titan.Workflow, error) {
	w, err := titan.New(workRoot, "S1", titan.DefaultOpts)
	if err != nil {
		return nil, err
	}
	w.Runner = runner
	w.Extractor = &fakeExtractor{sites: testSites(sites)}
	return w, nil
}

func writeFile(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return err
	}
	return ioutil.WriteFile(path, []byte(body), 0666)
}
