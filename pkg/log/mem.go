// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import "fmt"

// MemLogLimit caps the entries a memLog holds. Older entries are dropped
// first.
var MemLogLimit = 2048

// memLog is the default sink. It holds entries without displaying them, so
// they can be replayed once the console or file sink is attached.
type memLog struct {
	entries []LogEntry
	dropped int
	next    StackableLogger
}

var _ StackableLogger = (*memLog)(nil)

func (ml *memLog) AddEntry(e LogEntry) {
	if MemLogLimit > 0 && len(ml.entries) >= MemLogLimit {
		n := len(ml.entries) - MemLogLimit + 1
		ml.entries = append(ml.entries[:0], ml.entries[n:]...)
		ml.dropped += n
	}
	ml.entries = append(ml.entries, e)
	if ml.next != nil {
		ml.next.AddEntry(e)
	}
}

func (ml *memLog) ForwardTo(sl StackableLogger) {
	if ml.next == nil || sl == nil {
		ml.next = sl
	} else {
		panic("next already set")
	}
}

const MemLogIdent = "memLog"

func (*memLog) Ident() string            { return MemLogIdent }
func (ml *memLog) Next() StackableLogger { return ml.next }

func (ml *memLog) Finalize() {
	ml.entries, ml.dropped = nil, 0
	if ml.next != nil {
		ml.next.Finalize()
	}
}

// Entries returns what the memLog holds, preceded by a note if entries were
// dropped.
func (ml *memLog) Entries() []LogEntry {
	if ml.dropped == 0 {
		return ml.entries
	}
	note := LogEntry{Msg: fmt.Sprintf("(%d earlier entries dropped)", ml.dropped)}
	if len(ml.entries) > 0 {
		note.Time = ml.entries[0].Time
	}
	return append([]LogEntry{note}, ml.entries...)
}

// Remove the memLog from the stack once real sinks exist, so entries stop
// accumulating in memory.
func FlushMemLog() {
	RemoveLogger(MemLogIdent)
}
