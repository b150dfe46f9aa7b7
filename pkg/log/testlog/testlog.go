// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package testlog captures the output of pkg/log for tests, and can hijack
// runner.Exec so that tools which only exist in the installer environment
// (dd_list, dd_extract, blkid, rmmod...) can be faked.
//
// Entries print through t.Log unless buffered, in which case they can be
// examined once the test is done.
package testlog

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

// Line prefixes in the buffer, per kind of entry.
const (
	MsgPfx   = "MSG:"
	LogPfx   = "LOG:"
	FatalPfx = ">>FATAL()<< "
)

//Conforms to log.StackableLogger. Constructed via NewTestLog().
type TstLog struct {
	t             *testing.T
	Buf           *bytes.Buffer //if non-nil, entries go here instead of t.Log
	MsgCount      int
	LogCount      int
	FatalCount    int
	FatalIsNotErr bool //if true, Fatalf() does not fail the test
	frozen        bool
	stderr        bool //also write to stderr
	mu            sync.Mutex
	origExec      runner.ExecFunc
}

// NewTestLog replaces the log stack with a TstLog. Call Freeze when done;
// it restores the log stack and runner.Exec.
func NewTestLog(t *testing.T, bufferLog, stderr bool) *TstLog {
	tlog := &TstLog{t: t, stderr: stderr, origExec: runner.Exec}
	if bufferLog {
		tlog.Buf = new(bytes.Buffer)
	}
	log.NewLogStack(tlog)
	log.SetFatalAction(log.FailAction{Terminator: func() {}})
	return tlog
}

var _ log.StackableLogger = (*TstLog)(nil)

func (tlog *TstLog) AddEntry(e log.LogEntry) {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.frozen {
		return
	}
	line := fmt.Sprintf(e.Msg, e.Args...)
	switch {
	case e.Flags&flags.Fatal > 0:
		tlog.FatalCount++
		line = FatalPfx + line
		if !tlog.FatalIsNotErr {
			tlog.t.Errorf("@%s: %s", e.Time.Format(stampMilli), line)
			return
		}
	case e.Flags&flags.EndUser > 0:
		tlog.MsgCount++
		line = MsgPfx + line
	default:
		tlog.LogCount++
		line = LogPfx + line
	}
	if tlog.stderr {
		fmt.Fprintf(os.Stderr, "@%s: %s\n", e.Time.Format(stampMilli), line)
	}
	if tlog.Buf != nil {
		tlog.Buf.WriteString(line + "\n")
	} else {
		tlog.t.Logf("@%s: %s", e.Time.Format(stampMilli), line)
	}
}

const TstLogIdent = "tstLog"

func (*TstLog) Ident() string                      { return TstLogIdent }
func (tl *TstLog) Next() log.StackableLogger       { return nil }
func (*TstLog) Finalize()                          {}
func (tl *TstLog) ForwardTo(_ log.StackableLogger) {}

const stampMilli = "15:04:05.000" //like time.StampMilli, but leaves off date

// Freeze stops recording, and restores the log stack and runner.Exec.
// Safe to call more than once.
func (tlog *TstLog) Freeze() {
	tlog.mu.Lock()
	if tlog.frozen {
		tlog.mu.Unlock()
		return
	}
	tlog.frozen = true
	tlog.mu.Unlock()
	log.DefaultLogStack()
	log.SetFatalAction(log.DefaultFatal)
	runner.Exec = tlog.origExec
}

// String returns buffered output.
func (tlog *TstLog) String() string {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.Buf == nil {
		return ""
	}
	return tlog.Buf.String()
}

// Lines returns buffered lines starting with pfx; all lines if pfx is empty.
func (tlog *TstLog) Lines(pfx string) []string {
	var lines []string
	for _, l := range strings.Split(tlog.String(), "\n") {
		if l != "" && strings.HasPrefix(l, pfx) {
			lines = append(lines, l)
		}
	}
	return lines
}

// LinesMustMatch freezes the log and fails the test unless the buffered
// lines starting with pfx equal want.
func (tlog *TstLog) LinesMustMatch(pfx string, want []string) bool {
	tlog.t.Helper()
	tlog.Freeze()
	got := tlog.Lines(pfx)
	ok := len(got) == len(want)
	for i := 0; ok && i < len(got); i++ {
		ok = got[i] == want[i]
	}
	if !ok {
		tlog.t.Errorf("log mismatch\n got: %q\nwant: %q", got, want)
	}
	return ok
}
