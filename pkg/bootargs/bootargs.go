// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package bootargs parses the driver disk arguments collected from the kernel
//command line or kickstart.
//
//The argument files hold one line of whitespace separated tokens. A bare dd
//or inst.dd requests interactive selection; other tokens name driver sources.
//Network sources are fetched elsewhere and are ignored here.
package bootargs

import (
	"fmt"
	"os"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
)

var DefaultNetProtocols = []string{"http", "https", "ftp", "nfs", "nfs4"}

type Args struct {
	Interactive bool
	Sources     []string //non-network source tokens, in order
	Network     []string //tokens dropped as network sources
}

func isMarker(tok string) bool { return tok == "dd" || tok == "inst.dd" }

// Parse splits line into tokens. Interactive is true if a bare marker is
// present and no source is named.
func Parse(line string, netProtocols []string) Args {
	var a Args
	marker := false
	for _, tok := range strings.Fields(line) {
		if isMarker(tok) {
			marker = true
			continue
		}
		//accept the kernel command line spelling too
		for _, p := range []string{"inst.dd=", "dd="} {
			tok = strings.TrimPrefix(tok, p)
		}
		if tok == "" {
			continue
		}
		if isNetwork(tok, netProtocols) {
			a.Network = append(a.Network, tok)
			continue
		}
		a.Sources = append(a.Sources, tok)
	}
	a.Interactive = marker && len(a.Sources) == 0 && len(a.Network) == 0
	return a
}

func isNetwork(tok string, protocols []string) bool {
	proto, _, found := strings.Cut(tok, ":")
	if !found {
		return false
	}
	for _, p := range protocols {
		if strings.EqualFold(proto, p) {
			return true
		}
	}
	return false
}

// Read parses the first line of the named file. A missing or unreadable file
// results in empty Args.
func Read(path string, netProtocols []string) Args {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Logf("reading %s: %s", path, err)
		}
		return Args{}
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return Parse(line, netProtocols)
}

// Devices resolves each source to a device path.
func (a Args) Devices() []string {
	var devs []string
	for _, s := range a.Sources {
		d, err := DevicePath(s)
		if err != nil {
			log.Logf("ignoring driver disk argument %q: %s", s, err)
			continue
		}
		devs = append(devs, d)
	}
	return devs
}

// DevicePath translates a source such as hd:LABEL=OEMDRV, cdrom:sr0 or
// UUID=ed2d36e3 into a device path, i.e. /dev/disk/by-label/OEMDRV.
func DevicePath(src string) (string, error) {
	for _, p := range []string{"hd:", "cdrom:", "path:", "file:"} {
		if len(src) > len(p) && strings.EqualFold(src[:len(p)], p) {
			src = src[len(p):]
			break
		}
	}
	if k, v, found := strings.Cut(src, "="); found {
		idType := strings.ToLower(k)
		switch idType {
		case "label", "uuid", "partuuid", "partlabel":
		default:
			return "", fmt.Errorf("unknown identifier type %s", k)
		}
		//a trailing :path names a file on the device
		v, _, _ = strings.Cut(v, ":")
		if v == "" {
			return "", fmt.Errorf("empty %s", k)
		}
		return fmt.Sprintf("/dev/disk/by-%s/%s", idType, v), nil
	}
	if strings.HasPrefix(src, "/dev/") {
		dev, _, _ := strings.Cut(src, ":")
		return dev, nil
	}
	if strings.HasPrefix(src, "/") {
		return "", fmt.Errorf("not a device")
	}
	dev, _, _ := strings.Cut(src, ":")
	if dev == "" {
		return "", fmt.Errorf("empty device name")
	}
	return "/dev/" + dev, nil
}
