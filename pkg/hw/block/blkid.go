// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package block identifies block devices with blkid and parses what it reports.
package block

import (
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"

	"github.com/google/shlex"
)

var Verbose bool

// Name or path of the blkid binary.
var Blkid = "blkid"

// A block device as reported by blkid. Any field other than Device may be
// empty; blkid omits what it cannot determine.
type DeviceDescriptor struct {
	Device string //kernel name, i.e. sda1
	Label  string
	UUID   string
	FsType string
}

func (d DeviceDescriptor) Path() string { return "/dev/" + d.Device }

func (d DeviceDescriptor) String() string {
	s := d.Path()
	if d.Label != "" {
		s += " LABEL=" + d.Label
	}
	if d.UUID != "" {
		s += " UUID=" + d.UUID
	}
	if d.FsType != "" {
		s += " TYPE=" + d.FsType
	}
	return s
}

// ParseLine parses one line of blkid output. Lines not starting with a device
// path are rejected. Keys may appear in any order or not at all.
func ParseLine(line string) (dd DeviceDescriptor, ok bool) {
	elements, err := shlex.Split(line)
	if err != nil || len(elements) == 0 {
		return
	}
	dev := strings.TrimSuffix(elements[0], ":")
	if !strings.HasPrefix(dev, "/dev/") || len(dev) == len("/dev/") {
		return
	}
	dd.Device = strings.TrimPrefix(dev, "/dev/")
	for _, e := range elements[1:] {
		//shlex removes spaces and quotes - we don't need to
		k, v, found := strings.Cut(e, "=")
		if !found {
			if Verbose {
				log.Logf("blkid %s: can't parse %s, skipping", dev, e)
			}
			continue
		}
		switch strings.ToUpper(k) {
		case "LABEL":
			dd.Label = v
		case "UUID":
			dd.UUID = v
		case "TYPE":
			dd.FsType = v
		default:
			if Verbose {
				log.Logf("blkid %s: ignoring %s", dev, e)
			}
		}
	}
	return dd, true
}

// ParseOutput parses every line of blkid output, dropping lines that are not
// device descriptors.
func ParseOutput(out string) []DeviceDescriptor {
	var dds []DeviceDescriptor
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		dd, ok := ParseLine(line)
		if !ok {
			log.Logf("blkid: rejecting line %q", line)
			continue
		}
		dds = append(dds, dd)
	}
	return dds
}

// AllDevices returns a descriptor for each device blkid knows about. Any
// failure results in an empty list.
func AllDevices() []DeviceDescriptor {
	res := runner.Run(Blkid)
	if !res.Success() {
		log.Logf("listing block devices: %s", res.Err)
		return nil
	}
	return ParseOutput(res.Stdout)
}
