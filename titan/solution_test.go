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
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/titancna/titan"
	"github.com/stretchr/testify/require"
)

func testRuns(w *titan.Workflow) []titan.PloidyRun {
	return []titan.PloidyRun{
		{Ploidy: 2, Dir: w.Store.PloidyDir(2)},
		{Ploidy: 3, Dir: w.Store.PloidyDir(3)},
		{Ploidy: 4, Dir: w.Store.PloidyDir(4)},
	}
}

func TestSelectSolution(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := context.Background()

	runner := &fakeRunner{solutionPath: filepath.Join(tmpDir, "run_ploidy2", "S1_cluster01")}
	w, err := newTestWorkflow(tmpDir, runner, 2)
	assert.NoError(t, err)

	outPath, err := w.SelectSolution(ctx, testRuns(w))
	assert.NoError(t, err)
	expect.EQ(t, outPath, w.Store.SolutionPath())
	expect.True(t, fileExists(t, outPath))

	calls := runner.callsFor(titan.DefaultOpts.SelectScript)
	assert.EQ(t, len(calls), 1)
	args := calls[0].args
	expect.EQ(t, argValue(args, "--ploidyRun2"), w.Store.PloidyDir(2))
	expect.EQ(t, argValue(args, "--ploidyRun3"), w.Store.PloidyDir(3))
	expect.EQ(t, argValue(args, "--ploidyRun4"), w.Store.PloidyDir(4))

	// A second invocation reuses the existing summary.
	again, err := w.SelectSolution(ctx, testRuns(w))
	assert.NoError(t, err)
	expect.EQ(t, again, outPath)
	expect.EQ(t, runner.countCalls(titan.DefaultOpts.SelectScript), 1)
}

func TestSelectSolutionFailure(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := context.Background()

	runner := &fakeRunner{failDesc: "select optimal solution"}
	w, err := newTestWorkflow(tmpDir, runner, 2)
	assert.NoError(t, err)

	_, err = w.SelectSolution(ctx, testRuns(w))
	expect.NotNil(t, err)
	// Neither the summary nor a stray temp file may be left behind.
	matches, globErr := filepath.Glob(filepath.Join(w.Store.Dir, "optimalClusters.txt*"))
	assert.NoError(t, globErr)
	expect.EQ(t, len(matches), 0)
}

func TestParseSolution(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)

	path := filepath.Join(tmpDir, "optimalClusters.txt")
	require.NoError(t, writeFile(path,
		"purity\tploidy\tcellPrev\tpath\n0.4\t2.1\t0.3, 0.7\t/out/sample\n"))
	sol, err := titan.ParseSolution(path)
	require.NoError(t, err)
	require.Equal(t, "0.4", sol.Purity)
	require.Equal(t, "2.1", sol.Ploidy)
	require.Equal(t, []string{"0.3", "0.7"}, sol.CellPrev)
	require.Equal(t, "/out/sample", sol.Path)
	require.Empty(t, sol.Plots)
}

func TestParseSolutionPlots(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)

	prefix := filepath.Join(tmpDir, "S1_cluster01")
	require.NoError(t, writeFile(prefix+".Rplots.pdf", "%PDF\n"))
	require.NoError(t, writeFile(filepath.Join(prefix, "S1_cluster01_CNA.pdf"), "%PDF\n"))

	path := filepath.Join(tmpDir, "optimalClusters.txt")
	require.NoError(t, writeFile(path,
		"purity\tploidy\tcellPrev\tpath\n0.6\t3.2\t1.0\t"+prefix+"\n"))
	sol, err := titan.ParseSolution(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		prefix + ".Rplots.pdf",
		prefix + "/S1_cluster01_CNA.pdf",
	}, sol.Plots)
}

func TestParseSolutionMissingColumn(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)

	path := filepath.Join(tmpDir, "optimalClusters.txt")
	require.NoError(t, writeFile(path, "purity\tploidy\tcellPrev\n0.4\t2.1\t0.3\n"))
	_, err := titan.ParseSolution(path)
	require.Error(t, err)
}
