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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// VCFExtractor reads heterozygous sites out of a paired somatic VCF.  It
// keeps biallelic SNVs where the normal genotype is heterozygous and reports
// tumor read support from the FORMAT AD (and, when present, DP) fields.
// This covers the FORMAT conventions shared by the supported upstream
// callers; sites missing those fields are dropped rather than guessed at.
type VCFExtractor struct {
	// TumorSample and NormalSample name the genotype columns.  When empty,
	// the first sample column is taken as tumor and the second as normal.
	TumorSample  string
	NormalSample string
}

// Sites implements SiteExtractor.  Plain, gzipped and bgzipped VCFs are
// accepted; bgzf is a valid multi-member gzip stream.
func (x *VCFExtractor) Sites(ctx context.Context, src VariantSource, emit func(HetSite) error) (err error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return err
	}
	defer f.Close() // nolint: errcheck
	var r io.Reader = f
	if strings.HasSuffix(src.Path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "%s", src.Path)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}

	tumorCol, normalCol := -1, -1
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			tumorCol, normalCol, err = x.sampleColumns(strings.Split(line, "\t"))
			if err != nil {
				return errors.Wrapf(err, "%s", src.Path)
			}
			continue
		}
		if tumorCol < 0 {
			return errors.Errorf("%s: missing #CHROM header line", src.Path)
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= tumorCol || (normalCol >= 0 && len(fields) <= normalCol) {
			return errors.Errorf("%s: truncated record: %s", src.Path, line)
		}
		site, ok := parseHetSite(fields, tumorCol, normalCol)
		if !ok {
			continue
		}
		if err := emit(site); err != nil {
			return err
		}
	}
	return sc.Err()
}

// sampleColumns resolves the tumor and normal column indexes from the
// #CHROM header.  normal is -1 for a tumor-only VCF.
func (x *VCFExtractor) sampleColumns(header []string) (tumor, normal int, err error) {
	if len(header) < 10 {
		return -1, -1, errors.New("VCF has no sample columns")
	}
	if x.TumorSample == "" {
		tumor = 9
		normal = -1
		if len(header) > 10 {
			normal = 10
		}
		return tumor, normal, nil
	}
	tumor, normal = -1, -1
	for i := 9; i < len(header); i++ {
		switch header[i] {
		case x.TumorSample:
			tumor = i
		case x.NormalSample:
			normal = i
		}
	}
	if tumor < 0 {
		return -1, -1, errors.Errorf("tumor sample %s not found in VCF header", x.TumorSample)
	}
	if x.NormalSample != "" && normal < 0 {
		return -1, -1, errors.Errorf("normal sample %s not found in VCF header", x.NormalSample)
	}
	return tumor, normal, nil
}

// parseHetSite converts one VCF record into a HetSite.  ok is false when
// the record is not a usable biallelic heterozygous SNV.
func parseHetSite(fields []string, tumorCol, normalCol int) (HetSite, bool) {
	ref, alt := fields[3], fields[4]
	if len(ref) != 1 || len(alt) != 1 {
		return HetSite{}, false
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return HetSite{}, false
	}
	format := strings.Split(fields[8], ":")
	gtIdx, adIdx, dpIdx := -1, -1, -1
	for i, key := range format {
		switch key {
		case "GT":
			gtIdx = i
		case "AD":
			adIdx = i
		case "DP":
			dpIdx = i
		}
	}
	if adIdx < 0 {
		return HetSite{}, false
	}
	// Heterozygosity is judged on the normal genotype; for a tumor-only VCF
	// the tumor genotype is the only evidence available.
	gtCol := normalCol
	if gtCol < 0 {
		gtCol = tumorCol
	}
	if gtIdx < 0 || !isHet(sampleField(fields[gtCol], gtIdx)) {
		return HetSite{}, false
	}
	refCount, altCount, ok := parseAD(sampleField(fields[tumorCol], adIdx))
	if !ok {
		return HetSite{}, false
	}
	depth := refCount + altCount
	if dpIdx >= 0 {
		if dp, err := strconv.Atoi(sampleField(fields[tumorCol], dpIdx)); err == nil && dp >= depth {
			depth = dp
		}
	}
	return HetSite{
		Chrom:    fields[0],
		Pos:      pos,
		Ref:      ref,
		Alt:      alt,
		Depth:    depth,
		AltCount: altCount,
		Qual:     fields[5],
	}, true
}

func sampleField(sample string, idx int) string {
	parts := strings.Split(sample, ":")
	if idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

func isHet(gt string) bool {
	switch gt {
	case "0/1", "1/0", "0|1", "1|0":
		return true
	}
	return false
}

func parseAD(ad string) (refCount, altCount int, ok bool) {
	parts := strings.Split(ad, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	refCount, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	altCount, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return refCount, altCount, true
}
