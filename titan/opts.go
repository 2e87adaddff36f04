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

// Opts configures one workflow run.  The envconfig tags allow external tool
// locations and the hypothesis grid to be overridden through TITANCNA_*
// environment variables, e.g. TITANCNA_SOLVER_SCRIPT=/opt/titan/titanCNA.R.
type Opts struct {
	// SolverScript runs one TitanCNA fit for a fixed ploidy and cluster count.
	SolverScript string `envconfig:"SOLVER_SCRIPT"`
	// SelectScript scores the per-ploidy sweep outputs and writes the
	// optimal-solution summary.
	SelectScript string `envconfig:"SELECT_SCRIPT"`
	// Tabix indexes the bgzipped output VCF.
	Tabix string `envconfig:"TABIX"`

	// Ploidies and NumClusters span the hypothesis grid; the solver runs once
	// per combination.
	Ploidies    []int `envconfig:"PLOIDIES"`
	NumClusters []int `envconfig:"NUM_CLUSTERS"`

	// Cores is the per-sample core budget.  Sweep cells run concurrently up
	// to this budget, with the per-cell --numCores request divided so the sum
	// never exceeds it.
	Cores int `ignored:"true"`
}

// DefaultOpts is the standard 3x3 sweep with tools resolved from PATH.
var DefaultOpts = Opts{
	SolverScript: "titanCNA.R",
	SelectScript: "titanCNA_selectSolution.R",
	Tabix:        "tabix",
	Ploidies:     []int{2, 3, 4},
	NumClusters:  []int{1, 2, 3},
	Cores:        1,
}
