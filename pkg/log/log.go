// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package log is the logging mechanism used throughout driver-updates. Events
// go to a stack of sinks: memory (the default, so early events can be replayed
// into sinks added later), the console, and a file.
//
// Two kinds of events exist. Msgf is for the operator sitting in front of the
// installer and is always shown on the console; Logf is for technical detail
// and only reaches the console in verbose mode.
package log

import "github.com/bluemutedwisdom/anaconda/pkg/log/flags"

var logPrefix string

// Sets the prefix shown on each console and file line.
func SetPrefix(pfx string) {
	logPrefix = pfx
}

// Msgf is for messages the operator needs to see: which media is being
// examined, which drivers were loaded. Keep them short.
func Msgf(f string, va ...interface{}) { FlaggedLogf(flags.EndUser, f, va...) }

// Logf is for technical messages - commands run, paths walked, parse errors.
func Logf(f string, va ...interface{}) { FlaggedLogf(flags.NA, f, va...) }
