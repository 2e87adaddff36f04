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

/*
bio-titancna runs TitanCNA subclonal copy-number calling for one paired
tumor/normal sample.  It adapts an upstream normalized copy-number table and
a somatic VCF into TitanCNA's input formats, sweeps ploidy {2,3,4} x cluster
count {1,2,3}, selects the best-fitting solution, and writes the winning
segments as a bgzipped, tabix-indexed VCF.

The TitanCNA R scripts (titanCNA.R, titanCNA_selectSolution.R) and tabix
must be runnable; their locations can be overridden through the TITANCNA_*
environment variables (TITANCNA_SOLVER_SCRIPT, TITANCNA_SELECT_SCRIPT,
TITANCNA_TABIX), as can the hypothesis grid (TITANCNA_PLOIDIES,
TITANCNA_NUM_CLUSTERS).

Reruns are cheap: every stage is skipped when its output is already present
and current, so a partially completed sweep resumes where it left off.

Sample usage:
bio-titancna \
    -sample tumor1 -normal-sample normal1 \
    -cn tumor1.cnr \
    -vcf vardict=tumor1-vardict.vcf.gz \
    -work-dir /scratch/pipeline \
    -cores 8
*/
package main
