// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"sync"
	"time"

	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
)

// A type of logger which can be chained/stacked, each adding different
// functionality. Normal logging goes through the non-member functions in this
// package - Logf, Msgf, Fatalf.
type StackableLogger interface {
	// Add an entry to the log. Must call the same method on the next log in the
	// stack (if not nil).
	AddEntry(e LogEntry)

	// Chain one logger to another. It must be an error to call this on a
	// logger to which another has already been chained.
	ForwardTo(StackableLogger)

	// Identifies the type of logger, so the stack holds no duplicates.
	Ident() string
	// Returns next StackableLogger or nil
	Next() StackableLogger
	// Flushes outstanding entries and releases resources. Must call the same
	// method on the next log in the stack (if not nil).
	Finalize()
}

// Top logger on the stack. Access must hold logStackMtx.
var logStack StackableLogger = &memLog{}

var logStackMtx sync.Mutex

type stackErr struct {
	Id string
}

func (se *stackErr) Error() string {
	return fmt.Sprintf("duplicate logger %s in stack", se.Id)
}

// Flushes data, closes files, etc
func Finalize() {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	logStack.Finalize()
}

// Restores the log stack to its initial state, a lone memLog.
func DefaultLogStack() { NewLogStack(&memLog{}) }

// Calls Finalize on existing logger(s), then sets newLog as the topmost logger.
func NewLogStack(newLog StackableLogger) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	if logStack != nil {
		logStack.Finalize()
	}
	logStack = newLog
	logFile = ""
}

// Add a logger to the stack. If addPrevious is true, events already held by a
// memLog are replayed into the new logger first.
//
// End users should prefer AddConsoleLog() and AddNamedFileLog(). The only possible
// error is a logger of the same type already being in the stack.
func AddLogger(sl StackableLogger, addPrevious bool) error {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	if err := checkDup(sl, logStack); err != nil {
		return err
	}
	if addPrevious {
		addPreviousEvents(sl)
	}
	sl.ForwardTo(logStack)
	logStack = sl
	return nil
}

func checkDup(newLogger, sl StackableLogger) error {
	for l := sl; l != nil; l = l.Next() {
		if newLogger.Ident() == l.Ident() {
			return &stackErr{Id: l.Ident()}
		}
	}
	return nil
}

// Remove a log with the given id from the stack
func RemoveLogger(id string) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	var prev StackableLogger
	for l := logStack; l != nil; l = l.Next() {
		if l.Ident() != id {
			prev = l
			continue
		}
		next := l.Next()
		l.ForwardTo(nil)
		l.Finalize()
		if prev == nil {
			if next == nil {
				next = &memLog{}
			}
			logStack = next
		} else {
			prev.ForwardTo(nil)
			prev.ForwardTo(next)
		}
		return
	}
}

// LogEntry is the record type passed down the stack.
type LogEntry struct {
	Time  time.Time `json:"t"`
	Msg   string
	Args  []interface{} `json:",omitempty"`
	Flags flags.Flag    `json:",omitempty"`
}

// Backend of Logf(), Msgf(), Fatalf(). Inserts an entry into the topmost log.
func FlaggedLogf(opts flags.Flag, f string, va ...interface{}) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	logStack.AddEntry(LogEntry{
		Time:  time.Now(),
		Flags: opts,
		Msg:   f,
		Args:  va,
	})
}

func (le *LogEntry) String() string {
	var div string
	switch {
	case le.Flags&flags.EndUser != 0:
		div = "-- "
	case le.Flags&flags.Fatal != 0:
		div = "!! "
	case le.Flags == 0:
		div = "*- "
	default:
		div = "?? "
	}
	pfx := div + le.Time.Format(TimestampLayout) + " "
	if logPrefix != "" {
		pfx += logPrefix + ": "
	}
	return pfx + fmt.Sprintf(le.Msg, le.Args...)
}

// Replays entries held by a memLog (if any) into newlog. Caller holds the mutex.
func addPreviousEvents(newlog StackableLogger) {
	if _, isMem := newlog.(*memLog); isMem {
		return
	}
	ml := FindInStack(MemLogIdent)
	if ml == nil {
		return
	}
	if mem, ok := ml.(*memLog); ok {
		for _, e := range mem.Entries() {
			newlog.AddEntry(e)
		}
	}
}

// Return true if a log in the stack matches given id
func InStack(id string) bool {
	return FindInStack(id) != nil
}

// Return StackableLogger matching id, or nil
func FindInStack(id string) StackableLogger {
	for l := logStack; l != nil; l = l.Next() {
		if l.Ident() == id {
			return l
		}
	}
	return nil
}
