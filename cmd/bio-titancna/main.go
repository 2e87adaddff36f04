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
package main

import (
	"flag"
	"runtime"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/titancna/titan"
	"github.com/kelseyhightower/envconfig"
)

var (
	sampleName = flag.String("sample", "", "Tumor sample name (required)")
	normalName = flag.String("normal-sample", "", "Matched normal sample name, if any")
	cnPath     = flag.String("cn", "", "Normalized copy-number table from the upstream CNV caller (required)")
	vcfList    = flag.String("vcf", "", "Comma-separated somatic variant files, each as caller=path (required)")
	tumorCol   = flag.String("tumor-column", "", "VCF genotype column holding the tumor sample; default is the first sample column")
	normalCol  = flag.String("normal-column", "", "VCF genotype column holding the normal sample; default is the second sample column")
	workDir    = flag.String("work-dir", ".", "Pipeline work directory root")
	cores      = flag.Int("cores", runtime.NumCPU(), "Core budget for the hypothesis sweep")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	ctx := vcontext.Background()

	if *sampleName == "" || *cnPath == "" || *vcfList == "" {
		log.Fatalf("-sample, -cn and -vcf are required")
	}
	opts := titan.DefaultOpts
	if err := envconfig.Process("titancna", &opts); err != nil {
		log.Fatalf("reading TITANCNA_* environment: %v", err)
	}
	opts.Cores = *cores

	var sources []titan.VariantSource
	for _, spec := range strings.Split(*vcfList, ",") {
		src := titan.VariantSource{Path: spec}
		if i := strings.Index(spec, "="); i >= 0 {
			src = titan.VariantSource{Caller: spec[:i], Path: spec[i+1:]}
		}
		sources = append(sources, src)
	}
	items := []*titan.Sample{{
		Name:               *sampleName,
		Phenotype:          titan.PhenotypeTumor,
		NormalizedCoverage: *cnPath,
		Variants:           sources,
	}}
	if *normalName != "" {
		items = append(items, &titan.Sample{Name: *normalName, Phenotype: titan.PhenotypeNormal})
	}

	w, err := titan.New(*workDir, *sampleName, opts)
	if err != nil {
		log.Fatalf("initializing workflow: %v", err)
	}
	w.Extractor = &titan.VCFExtractor{TumorSample: *tumorCol, NormalSample: *normalCol}
	out, err := w.Run(ctx, titan.GetPaired(items), items)
	if err != nil {
		log.Fatalf("titancna failed: %v", err)
	}
	for _, s := range out {
		if s.Name != *sampleName || len(s.SV) == 0 {
			continue
		}
		r := s.SV[len(s.SV)-1]
		log.Printf("titancna: purity %s, ploidy %s, subclone prevalences [%s]",
			r.Purity, r.Ploidy, strings.Join(r.CellularPrevalence, " "))
		log.Printf("titancna: calls written to %s", r.VariantFile)
	}
}
