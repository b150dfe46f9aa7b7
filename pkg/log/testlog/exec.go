// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package testlog

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

//represents a command in CmdMap
type Key string

//generates key for given command
func CmdKey(args ...string) Key {
	k := ""
	for _, arg := range args {
		k += fmt.Sprintf("%s|", arg)
	}
	return Key(k)
}

//data for use with UseMappedCmdHijacker
type HijackerData struct {
	Result   runner.Result       //returned each time the command is run
	RunCount int                 //number of times the command has been invoked
	Action   func(cmd *exec.Cmd) //if non-nil, called before returning Result; use to fake side effects
	Pause    time.Duration       //pause this long before returning
}

//map passed to UseMappedCmdHijacker
type CmdMap map[Key]HijackerData

// Replays results from a map of commands. Unlike a real run, a command missing
// from the map is never executed: it is recorded with RunCount and reported as
// a launch failure. Commands such as rmmod must not run on a developer machine.
//
// Limitation: not able to return different results for different exec's of a
// given command.
func (tlog *TstLog) UseMappedCmdHijacker(m CmdMap) {
	runner.Exec = func(cmd *exec.Cmd) runner.Result {
		key := CmdKey(cmd.Args...)
		log.Logf("Running %v...", cmd.Args)
		data, ok := m[key]
		data.RunCount++
		res := data.Result
		if !ok {
			res = runner.Result{ExitCode: -1, Err: runner.Classify(cmd.Args, exec.ErrNotFound)}
		}
		if data.Action != nil {
			data.Action(cmd)
		}
		m[key] = data
		time.Sleep(data.Pause)
		return res
	}
}

// ExitResult is a convenience for a command that ran and exited with code.
func ExitResult(stdout string, code int, args ...string) runner.Result {
	return runner.Result{
		Stdout:   stdout,
		ExitCode: code,
		Err:      fmt.Errorf("%w: %v: exit status %d", runner.EExit, args, code),
	}
}
