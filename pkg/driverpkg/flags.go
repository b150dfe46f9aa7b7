// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverpkg

import "strings"

// Capabilities of a driver package, as reported by dd_list. Tokens other than
// modules and firmwares are kept in Other and passed through to dd_extract.
type Flags struct {
	Modules  bool
	Firmware bool
	Other    []string
}

func ParseFlags(s string) Flags {
	var f Flags
	for _, tok := range strings.Fields(s) {
		switch strings.ToLower(tok) {
		case "modules":
			f.Modules = true
		case "firmwares", "firmware":
			f.Firmware = true
		default:
			f.Other = append(f.Other, tok)
		}
	}
	return f
}

// ProvidesDrivers is true if the package carries kernel modules or firmware.
func (f Flags) ProvidesDrivers() bool { return f.Modules || f.Firmware }

// Switches translates flags to dd_extract options.
func (f Flags) Switches() []string {
	var sw []string
	if f.Modules {
		sw = append(sw, "--modules")
	}
	if f.Firmware {
		sw = append(sw, "--firmwares")
	}
	for _, o := range f.Other {
		sw = append(sw, "--"+o)
	}
	return sw
}

func (f Flags) String() string {
	var toks []string
	if f.Modules {
		toks = append(toks, "modules")
	}
	if f.Firmware {
		toks = append(toks, "firmwares")
	}
	return strings.Join(append(toks, f.Other...), " ")
}
