// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package block

import (
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

type LookupStatus int

const (
	Found LookupStatus = iota
	NotFound
	ToolError
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case ToolError:
		return "tool error"
	}
	return "LookupStatus VALUE OUT OF RANGE"
}

// Outcome of a label search. Devices is only non-empty when Status is Found.
type Lookup struct {
	Status  LookupStatus
	Devices []string
	Err     error
}

// exit status blkid uses when no device matches the search
const blkidNoMatch = 2

// ByLabel asks blkid for the paths of all devices carrying label.
func ByLabel(label string) Lookup {
	res := runner.Run(Blkid, "-t", "LABEL="+label, "-o", "device")
	switch {
	case res.Success():
	case res.Launched() && res.ExitCode == blkidNoMatch:
		return Lookup{Status: NotFound}
	default:
		return Lookup{Status: ToolError, Err: res.Err}
	}
	var devs []string
	for _, l := range strings.Split(res.Stdout, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			devs = append(devs, l)
		}
	}
	if len(devs) == 0 {
		return Lookup{Status: NotFound}
	}
	return Lookup{Status: Found, Devices: devs}
}

// DevicesByLabel is ByLabel for callers that only care whether anything was
// found. Tool errors are logged.
func DevicesByLabel(label string) []string {
	l := ByLabel(label)
	if l.Status == ToolError {
		log.Logf("searching for label %s: %s", label, l.Err)
	}
	return l.Devices
}
