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
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Runner invokes an external tool.  The workflow depends on this interface
// rather than os/exec directly so tests can run without the TitanCNA R
// scripts installed.
type Runner interface {
	// Run executes name with args in dir and blocks until the process exits.
	// desc is a short human-readable label for logs and errors.  A non-nil
	// error means a non-zero exit or a failure to start.
	Run(ctx context.Context, dir, desc, name string, args ...string) error
}

// ExecRunner runs tools as local subprocesses.
type ExecRunner struct{}

// Run implements Runner.  Combined stdout/stderr is folded into the returned
// error on failure.
func (ExecRunner) Run(ctx context.Context, dir, desc, name string, args ...string) error {
	log.Printf("%s: %s %s", desc, name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s: %s %s: %s", desc, name,
			strings.Join(args, " "), bytes.TrimSpace(out))
	}
	return nil
}
