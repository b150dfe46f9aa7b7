// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package udev asks a running udevd to replay device events.
package udev

import (
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

// Name or path of udevadm.
var Udevadm = "udevadm"

// Coldplug replays "add" events for all devices, so that udev loads modules
// for hardware it has already seen.
func Coldplug() error {
	return runner.Run(Udevadm, "trigger", "--action=add").Err
}

// Settle waits for the udev event queue to empty.
func Settle() error {
	return runner.Run(Udevadm, "settle", "--timeout=20").Err
}

// Replay triggers "add" events and waits for udev to process them, so that
// device nodes for newly bound drivers exist when it returns.
func Replay() error {
	if err := Coldplug(); err != nil {
		return err
	}
	return Settle()
}

