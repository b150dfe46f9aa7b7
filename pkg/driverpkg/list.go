// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package driverpkg lists the packages in a driver repository and extracts
//them into the update area, using the dd_list and dd_extract tools.
package driverpkg

import (
	"fmt"
	fp "path/filepath"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

var (
	ListTool    = "dd_list"
	ExtractTool = "dd_extract"
)

// Terminates each record in dd_list output.
const RecordSep = "---"

// A selectable driver package.
type DriverPackage struct {
	Source      string //archive path as given by dd_list
	Name        string
	Flags       Flags
	Description string //may span several lines
	Repo        string //package dir the package was listed from

	selected bool
}

func (p *DriverPackage) Selected() bool     { return p.selected }
func (p *DriverPackage) SetSelected(s bool) { p.selected = s }

func (p *DriverPackage) Display() string {
	s := fmt.Sprintf("%s (%s)", p.Name, fp.Base(p.Source))
	if p.Description != "" {
		s += "\n      " + strings.ReplaceAll(p.Description, "\n", "\n      ")
	}
	return s
}

// Path to the package archive; relative sources are relative to Repo.
func (p *DriverPackage) Archive() string {
	if fp.IsAbs(p.Source) || p.Repo == "" {
		return p.Source
	}
	return fp.Join(p.Repo, p.Source)
}

// ParseList parses dd_list output. Each record is a source line, a name line,
// a flags line and any number of description lines, followed by RecordSep.
// Records lacking a source or name are dropped. A final record missing its
// separator is kept if it has at least the first three lines.
func ParseList(out string) []DriverPackage {
	var pkgs []DriverPackage
	var rec []string
	finish := func(terminated bool) {
		defer func() { rec = nil }()
		if len(rec) == 0 {
			return
		}
		if len(rec) < 3 && !terminated {
			log.Logf("dd_list: dropping truncated record %q", rec)
			return
		}
		for len(rec) < 3 {
			rec = append(rec, "")
		}
		p := DriverPackage{
			Source:      strings.TrimSpace(rec[0]),
			Name:        strings.TrimSpace(rec[1]),
			Flags:       ParseFlags(rec[2]),
			Description: strings.Join(rec[3:], "\n"),
		}
		if p.Source == "" || p.Name == "" {
			log.Logf("dd_list: dropping record without source or name %q", rec)
			return
		}
		pkgs = append(pkgs, p)
	}
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == RecordSep {
			finish(true)
			continue
		}
		rec = append(rec, l)
	}
	finish(false)
	return pkgs
}

// List returns the packages in repo usable with the given kernel and
// installer versions. Any failure results in an empty list.
func List(repo, kver, installerVer string) []DriverPackage {
	res := runner.Run(ListTool, "-d", repo, "-k", kver, "-a", installerVer)
	if !res.Success() {
		log.Logf("listing packages in %s: %s", repo, res.Err)
		return nil
	}
	pkgs := ParseList(res.Stdout)
	for i := range pkgs {
		pkgs[i].Repo = repo
	}
	return pkgs
}
