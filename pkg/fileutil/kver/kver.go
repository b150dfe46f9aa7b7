// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package kver determines the running kernel release and machine architecture.
package kver

import (
	"golang.org/x/sys/unix"
)

type KInfo struct {
	Release string //uname -r, e.g. 5.14.0-362.8.1.el9_3.x86_64
	Machine string //uname -m
}

// Running returns information about the running kernel.
func Running() (KInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return KInfo{}, err
	}
	return KInfo{
		Release: unix.ByteSliceToString(uts.Release[:]),
		Machine: unix.ByteSliceToString(uts.Machine[:]),
	}, nil
}
