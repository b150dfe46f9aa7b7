// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package runner runs the external tools driver-updates depends on (blkid,
// dd_list, dd_extract, depmod, rmmod, udevadm...) and reports how they failed.
//
// Callers must be able to tell "could not start the program" from "the program
// ran and exited non-zero": the former usually means the initramfs lacks a
// tool, the latter frequently means nothing matched. Nothing here retries.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
)

var (
	// program not found, not executable, or otherwise could not be started
	ELaunch = errors.New("cannot launch")
	// program ran but exited non-zero
	EExit = errors.New("non-zero exit")
)

// Result of running a program. Stdout is whatever was written before exit,
// stderr is discarded.
type Result struct {
	Stdout   string
	ExitCode int //-1 if never started
	Err      error
}

func (r Result) Success() bool { return r.Err == nil }

// Launched is true if the program started, regardless of its exit status.
func (r Result) Launched() bool { return !errors.Is(r.Err, ELaunch) }

type ExecFunc func(cmd *exec.Cmd) Result

// Exec executes a prepared command. Tests replace it (see testlog) to fake
// tools that don't exist outside the installer environment.
var Exec ExecFunc = DefaultExec

// Run the named program with args.
func Run(name string, args ...string) Result {
	return Exec(exec.Command(name, args...))
}

// Default impl of Exec(); captures stdout, discards stderr, logs failures.
func DefaultExec(cmd *exec.Cmd) Result {
	log.Logf("Running %v...", cmd.Args)
	cmd.Stderr = io.Discard
	out, err := cmd.Output()
	res := Result{Stdout: string(out)}
	if err == nil {
		return res
	}
	res.Err = Classify(cmd.Args, err)
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
	} else {
		res.ExitCode = -1
	}
	log.Logf("Running %v: %s", cmd.Args, res.Err)
	return res
}

// Classify wraps an error returned by os/exec in ELaunch or EExit.
func Classify(args []string, err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return fmt.Errorf("%w: %v: %s", EExit, args, err)
	}
	return fmt.Errorf("%w: %v: %s", ELaunch, args, err)
}
