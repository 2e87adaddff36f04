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

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// cnrRow is the subset of the upstream normalization table the solver needs.
// Extra columns (gene, depth, weight, ...) are tolerated and dropped;
// missing required columns fail the decode.
type cnrRow struct {
	Chromosome string `tsv:"chromosome"`
	Start      int64  `tsv:"start"`
	End        int64  `tsv:"end"`
	// Log2 is passed through verbatim to avoid reformatting the ratio.
	Log2 string `tsv:"log2"`
}

// PrepareCopyNumberFile adapts the upstream normalized copy-number table
// into the solver's cn format: columns renamed to chrom/start/end/logR and
// start shifted from 0-based half-open to the 1-based inclusive coordinates
// the solver expects.  The table is streamed row by row, so input size does
// not affect memory use.  If the output already exists and is at least as
// new as cnrPath, the existing path is returned without rereading the input.
func (w *Workflow) PrepareCopyNumberFile(ctx context.Context, cnrPath string) (string, error) {
	outPath := w.Store.CNPath(cnrPath)
	if fileUptodate(outPath, cnrPath) {
		return outPath, nil
	}
	in, err := file.Open(ctx, cnrPath)
	if err != nil {
		return "", err
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	err = writeAtomic(outPath, func(out io.Writer) error {
		tw := tsv.NewWriter(out)
		tw.WriteString("chrom")
		tw.WriteString("start")
		tw.WriteString("end")
		tw.WriteString("logR")
		if err := tw.EndLine(); err != nil {
			return err
		}
		for {
			var row cnrRow
			if err := tr.Read(&row); err != nil {
				if err == io.EOF {
					break
				}
				return errors.E(err, fmt.Sprintf("reading %s", cnrPath))
			}
			tw.WriteString(row.Chromosome)
			tw.WriteInt64(row.Start + 1)
			tw.WriteInt64(row.End)
			tw.WriteString(row.Log2)
			if err := tw.EndLine(); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// hetHeader is the fixed column header of the solver's het file.
var hetHeader = []string{"Chr", "Position", "Ref", "RefCount", "Nref", "NrefCount", "NormQuality"}

// PrepareHetSiteFile builds the heterozygous-site support table from the
// first compatible variant source.  An empty source list is a configuration
// error, not a skippable condition.  The reference-supporting count is
// derived as depth minus alt support.  Skipped when the output is already at
// least as new as the source file.
func (w *Workflow) PrepareHetSiteFile(ctx context.Context, sources []VariantSource) (string, error) {
	if len(sources) == 0 {
		return "", errors.E("no compatible variant source for het site extraction")
	}
	src := sources[0]
	outPath := w.Store.HetPath()
	if fileUptodate(outPath, src.Path) {
		return outPath, nil
	}
	err := writeAtomic(outPath, func(out io.Writer) error {
		tw := tsv.NewWriter(out)
		for _, col := range hetHeader {
			tw.WriteString(col)
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
		err := w.Extractor.Sites(ctx, src, func(site HetSite) error {
			tw.WriteString(site.Chrom)
			tw.WriteInt64(int64(site.Pos))
			tw.WriteString(site.Ref)
			tw.WriteInt64(int64(site.Depth - site.AltCount))
			tw.WriteString(site.Alt)
			tw.WriteInt64(int64(site.AltCount))
			tw.WriteString(site.Qual)
			return tw.EndLine()
		})
		if err != nil {
			return err
		}
		return tw.Flush()
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}
