// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"os"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
)

// Called after a fatal event has been logged.
type FatalFunc func()

// Actions to take when log.Fatalf() is called. The event itself is logged
// automatically.
type FailAction struct {
	// Prefix to add to message
	MsgPfx string
	// Action to take to exit. Logs are no longer writable when this is called.
	Terminator FatalFunc
}

var fatalAction = DefaultFatal

// Sets up action to take when fatal event has been logged; see FailAction.
func SetFatalAction(act FailAction) { fatalAction = act }

// The installer must keep going no matter what driver-updates does, so the
// default is to exit 0 rather than 1.
var DefaultFatal = FailAction{Terminator: DefaultFatalAction}

func DefaultFatalAction() {
	if strings.HasSuffix(os.Args[0], ".test") {
		panic("generic fatal called from test")
	}
	os.Exit(0)
}

// Like Msgf, but does not return. Behavior modified by SetFatalAction().
func Fatalf(f string, va ...interface{}) {
	logStackMtx.Lock()
	unconfigured := logStack.Next() == nil && logStack.Ident() == MemLogIdent
	logStackMtx.Unlock()
	if unconfigured {
		AddConsoleLog(0)
		Logf("Fatalf: logging unconfigured")
	}
	FlaggedLogf(flags.Fatal, fatalAction.MsgPfx+f, va...)
	Finalize()
	fatalAction.Terminator()
}
