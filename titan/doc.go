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
Package titan orchestrates TitanCNA subclonal copy-number calling for one
paired tumor/normal sample.

The package does not implement the copy-number model itself; TitanCNA's R
scripts are invoked as subprocesses with a file-based contract.  What lives
here is the surrounding workflow: adapting upstream copy-number and variant
files into TitanCNA's input formats, sweeping a ploidy x cluster-count
hypothesis grid, selecting the best-fitting solution, and translating the
winning solution's segment table into a bgzipped, indexed VCF.

Every stage is idempotent.  Outputs are keyed by deterministic paths under
<workRoot>/structural/<sample>/titancna and a stage is skipped when its
output already exists (and, where the input can be regenerated, is at least
as new as that input).  All externally visible files are written to a
temporary path and renamed into place, so an interrupted run never leaves a
truncated output behind.
*/
package titan
