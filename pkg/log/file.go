// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"os"
	fp "path/filepath"

	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
)

type fileLog struct {
	f    *os.File
	next StackableLogger
}

var _ StackableLogger = (*fileLog)(nil)

// name of the file used by the fileLog in the stack, if any
var logFile string

// AddNamedFileLog adds a fileLog writing to fname to the stack, replaying
// entries held in memory. An existing file is appended to, since the installer
// may run us more than once per boot.
func AddNamedFileLog(fname string) (string, error) {
	if err := os.MkdirAll(fp.Dir(fname), 0755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", err
	}
	if err = AddLogger(&fileLog{f: f}, true); err != nil {
		f.Close()
		return "", err
	}
	logStackMtx.Lock()
	logFile = fname
	logStackMtx.Unlock()
	return fname, nil
}

func (fl *fileLog) AddEntry(e LogEntry) {
	if (e.Flags&flags.NotFile) == 0 && fl.f != nil {
		fmt.Fprintln(fl.f, e.String())
	}
	if fl.next != nil {
		fl.next.AddEntry(e)
	}
}

func (fl *fileLog) ForwardTo(sl StackableLogger) {
	if fl.next == nil || sl == nil {
		fl.next = sl
	} else {
		panic("next already set")
	}
}

const FileLogIdent = "fileLog"

func (fl *fileLog) Ident() string         { return FileLogIdent }
func (fl *fileLog) Next() StackableLogger { return fl.next }

func (fl *fileLog) Finalize() {
	if fl.f != nil {
		if err := fl.f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %s\n", err)
		}
		fl.f = nil
	}
	if fl.next != nil {
		fl.next.Finalize()
	}
}

// LogFile returns the path written by the file sink, or "".
func LogFile() string {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	return logFile
}
