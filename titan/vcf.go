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
	"io"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

const vcfPreamble = `##fileformat=VCFv4.2
##source=TitanCNA
##INFO=<ID=END,Number=1,Type=Integer,Description="End position of the variant described in this record">
##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">
##INFO=<ID=FOLD_CHANGE_LOG,Number=1,Type=Float,Description="Log fold change">
##INFO=<ID=CN,Number=1,Type=Integer,Description="Copy Number: Overall">
##INFO=<ID=MajorCN,Number=1,Type=Integer,Description="Copy Number: Major allele">
##INFO=<ID=MinorCN,Number=1,Type=Integer,Description="Copy Number: Minor allele">
##ALT=<ID=DEL,Description="Deletion">
##ALT=<ID=DUP,Description="Duplication">
##ALT=<ID=LOS,Description="Loss of heterozygosity">
##ALT=<ID=CNV,Description="Copy number variable region">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
`

// segRow is the slice of the solver's segment table needed for VCF output.
// Values pass through verbatim.
type segRow struct {
	Chromosome string `tsv:"Chromosome"`
	Start      string `tsv:"Start_Position.bp."`
	End        string `tsv:"End_Position.bp."`
	CopyNumber string `tsv:"Copy_Number"`
	MajorCN    string `tsv:"MajorCN"`
	MinorCN    string `tsv:"MinorCN"`
	MedianLogR string `tsv:"Median_logR"`
	Call       string `tsv:"TITAN_call"`
}

// SVType maps a TitanCNA event code to the symbolic alt allele emitted in
// the VCF.  Unrecognized codes become the generic CNV.
//
// The known codes: homozygous deletion (HOMD), hemizygous deletion LOH
// (DLOH), copy neutral LOH (NLOH), amplified LOH (ALOH), single-allele gain
// (GAIN), allele-specific amplification (ASCNA), balanced amplification
// (BCNA), unbalanced amplification (UBCNA).
func SVType(call string) string {
	switch call {
	case "HOMD", "DLOH":
		return "DEL"
	case "ALOH", "GAIN", "ASCNA", "BCNA", "UBCNA":
		return "DUP"
	case "NLOH":
		return "LOH"
	}
	return "CNV"
}

// SegsToVCF renders the chosen solution's segment table as a bgzipped,
// indexed VCF next to the input and returns the compressed path.  Unlike
// the cache-style stages, this is a create-once artifact: an existing
// .vcf or .vcf.gz at the target path is taken as already produced, with no
// freshness check against the segment table.
func (w *Workflow) SegsToVCF(ctx context.Context, segsPath string) (string, error) {
	vcfPath := splitextPlus(segsPath) + ".vcf"
	if !fileExists(vcfPath+".gz") && !fileExists(vcfPath) {
		if err := w.writeVCF(segsPath, vcfPath); err != nil {
			return "", err
		}
	}
	return w.BgzipAndIndex(ctx, vcfPath)
}

func (w *Workflow) writeVCF(segsPath, vcfPath string) error {
	in, err := os.Open(segsPath)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	r := tsv.NewReader(in)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	return writeAtomic(vcfPath, func(out io.Writer) error {
		if _, err := io.WriteString(out, vcfPreamble); err != nil {
			return err
		}
		tw := tsv.NewWriter(out)
		for _, col := range []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO", "FORMAT", w.Store.Sample} {
			tw.WriteString(col)
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
		for {
			var seg segRow
			if err := r.Read(&seg); err != nil {
				if err == io.EOF {
					break
				}
				return errors.E(err, fmt.Sprintf("parsing segment table %s", segsPath))
			}
			svtype := SVType(seg.Call)
			info := fmt.Sprintf("SVTYPE=%s;END=%s;CN=%s;MajorCN=%s;MinorCN=%s;FOLD_CHANGE_LOG=%s",
				svtype, seg.End, seg.CopyNumber, seg.MajorCN, seg.MinorCN, seg.MedianLogR)
			tw.WriteString(seg.Chromosome)
			tw.WriteString(seg.Start)
			tw.WriteString(".")
			tw.WriteString("N")
			tw.WriteString("<" + svtype + ">")
			tw.WriteString(".")
			tw.WriteString(".")
			tw.WriteString(info)
			tw.WriteString("GT")
			tw.WriteString("0/1")
			if err := tw.EndLine(); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

// BgzipAndIndex compresses vcfPath into <vcfPath>.gz with bgzf, removes the
// plain file, and builds a tabix index.  Each step is skipped when its
// output already exists, so a previously finished conversion is a no-op.
func (w *Workflow) BgzipAndIndex(ctx context.Context, vcfPath string) (string, error) {
	gzPath := vcfPath + ".gz"
	if !fileExists(gzPath) {
		in, err := os.Open(vcfPath)
		if err != nil {
			return "", err
		}
		err = writeAtomic(gzPath, func(out io.Writer) error {
			bw := bgzf.NewWriter(out, 1)
			if _, err := io.Copy(bw, in); err != nil {
				return err
			}
			return bw.Close()
		})
		if cerr := in.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", err
		}
		if err := os.Remove(vcfPath); err != nil {
			return "", err
		}
	}
	if !fileExists(gzPath + ".tbi") {
		err := w.Runner.Run(ctx, filepath.Dir(gzPath), "titancna: index variant calls",
			w.Opts.Tabix, "-f", "-p", "vcf", gzPath)
		if err != nil {
			return "", errors.E(err, "variant file indexing failed")
		}
	}
	return gzPath, nil
}
