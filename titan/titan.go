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

import "context"

// Phenotype values recognized by GetPaired.
const (
	PhenotypeTumor  = "tumor"
	PhenotypeNormal = "normal"
)

// Caller is the identifier attached to results produced by this package.
const Caller = "titancna"

// VariantSource is one somatic variant file produced by an upstream caller.
type VariantSource struct {
	// Caller names the upstream variant caller, e.g. "vardict".
	Caller string
	// Path is the VCF location.  Gzipped and bgzipped files are accepted.
	Path string
}

// Sample is one member of a batch handed to the workflow by the surrounding
// pipeline scheduler.  Fields other than SV are treated as immutable for the
// duration of a run.
type Sample struct {
	Name      string
	Phenotype string
	// NormalizedCoverage is the upstream copy-number normalization output
	// (CNVkit .cnr style), required on the tumor sample.
	NormalizedCoverage string
	// Variants lists somatic variant files usable for het-site extraction.
	Variants []VariantSource
	// SV accumulates structural/copy-number caller results.
	SV []*Result
}

// Pair is a tumor sample with its matched normal, if any.
type Pair struct {
	Tumor  *Sample
	Normal *Sample
}

// GetPaired extracts the somatic tumor/normal pairing from a batch.  A pair
// requires a tumor sample carrying at least one somatic variant source; the
// normal member is optional.  Returns nil when no such pairing exists.
func GetPaired(items []*Sample) *Pair {
	var pair Pair
	for _, s := range items {
		switch s.Phenotype {
		case PhenotypeTumor:
			if pair.Tumor == nil && len(s.Variants) > 0 {
				pair.Tumor = s
			}
		case PhenotypeNormal:
			if pair.Normal == nil {
				pair.Normal = s
			}
		}
	}
	if pair.Tumor == nil {
		return nil
	}
	return &pair
}

// Result is one finalized TitanCNA call set, attached to the tumor sample's
// SV list.  Purity and Ploidy are kept as the solver's verbatim strings; the
// ploidy estimate in particular is usually non-integer.
type Result struct {
	Caller             string
	Purity             string
	Ploidy             string
	CellularPrevalence []string
	// Plots lists diagnostic PDFs that exist on disk for the chosen solution.
	Plots []string
	// Subclones is the chosen solution's per-segment table.
	Subclones string
	// VariantFile is the bgzipped VCF rendering of Subclones.
	VariantFile string
}

// HetSite is one heterozygous SNP with tumor-sample read support, as
// consumed by TitanCNA's het file.
type HetSite struct {
	Chrom string
	// Pos is 1-based, as in VCF text.
	Pos int
	Ref string
	Alt string
	// Depth is the tumor-sample read depth at the site.
	Depth int
	// AltCount is the number of tumor reads supporting Alt.
	AltCount int
	// Qual is the normal-sample quality score, verbatim.
	Qual string
}

// SiteExtractor pulls heterozygous sites with tumor read support out of an
// upstream variant file.  Implementations own the knowledge of a caller's
// annotation conventions.
type SiteExtractor interface {
	Sites(ctx context.Context, src VariantSource, emit func(HetSite) error) error
}
