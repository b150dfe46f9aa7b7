// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package kmsg copies log events to the kernel ring buffer, where they are
// interleaved with driver messages and survive into the installed system's
// journal. Writing requires root.
package kmsg

import (
	"fmt"
	"io"
	"os"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
)

type Priority uint

//Convert facility/severity into priority
func Prio(f Facility, s Severity) Priority {
	return Priority(f*8) + Priority(s)
}

//Facility values a la RFC5424. Incomplete list.
type Facility uint

const (
	FacUser   Facility = 1
	FacDaemon Facility = 3
)

//Severity values a la RFC5424. Incomplete list.
type Severity uint

const (
	SevEmerg Severity = iota
	SevAlert
	SevCrit
	SevError
	SevWarn
	SevNotice
	SevInfo
	SevDebug
)

const KmsgLogIdent = "kmsgLog"

// kmsgLog is a log.StackableLogger forwarding events whose flags match to
// the kernel log. Fatal events are always forwarded, at a higher severity.
type kmsgLog struct {
	out   io.Writer
	pfx   string
	flags flags.Flag
	fac   Facility
	next  log.StackableLogger
}

var _ log.StackableLogger = (*kmsgLog)(nil)

// AddKmsgLog opens path (normally /dev/kmsg) and adds it to the log stack.
// Only events carrying one of the given flags are written.
func AddKmsgLog(path, pfx string, f flags.Flag) error {
	kmsg, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if err = log.AddLogger(newKmsgLog(kmsg, pfx, f), false); err != nil {
		kmsg.Close()
	}
	return err
}

func newKmsgLog(out io.Writer, pfx string, f flags.Flag) *kmsgLog {
	return &kmsgLog{out: out, pfx: pfx, flags: f, fac: FacDaemon}
}

func (k *kmsgLog) AddEntry(e log.LogEntry) {
	sev := SevNotice
	if e.Flags&flags.Fatal > 0 {
		sev = SevCrit
	}
	if e.Flags&k.flags > 0 || sev == SevCrit {
		msg := fmt.Sprintf("<%d>", Prio(k.fac, sev))
		if len(k.pfx) > 0 {
			msg += k.pfx + ": "
		}
		//one write per record
		fmt.Fprint(k.out, msg+fmt.Sprintf(e.Msg, e.Args...))
	}
	if k.next != nil {
		k.next.AddEntry(e)
	}
}

func (k *kmsgLog) ForwardTo(sl log.StackableLogger) {
	if k.next == nil || sl == nil {
		k.next = sl
	} else {
		panic("next already set")
	}
}

func (*kmsgLog) Ident() string               { return KmsgLogIdent }
func (k *kmsgLog) Next() log.StackableLogger { return k.next }

func (k *kmsgLog) Finalize() {
	if c, ok := k.out.(io.Closer); ok {
		_ = c.Close()
	}
	if k.next != nil {
		k.next.Finalize()
	}
}
