// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverpkg

import (
	"io/fs"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/fileutil"
	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

// Name of the staging dirs; trees with this name are never relocated again.
const UpdatesDir = "updates"

// File name suffixes of kernel modules.
var ModuleSuffixes = []string{".ko", ".ko.xz", ".ko.gz", ".ko.zst"}

func IsModule(name string) bool {
	for _, s := range ModuleSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Extracts packages into Dest and relocates modules and firmware.
type Extractor struct {
	Kver         string
	Dest         string //extraction root, i.e. /updates
	LiveModules  string //i.e. /lib/modules/<kver>/updates
	LiveFirmware string //i.e. /lib/firmware/updates
	Decompress   bool   //decompress .ko.xz when copying to LiveModules
}

// Extract unpacks p into x.Dest and relocates its modules and firmware.
// Failure is logged and reported with a false return.
func (x *Extractor) Extract(p *DriverPackage) bool {
	args := append([]string{"-k", x.Kver}, p.Flags.Switches()...)
	args = append(args, "--rpm", p.Archive(), "--directory", x.Dest)
	res := runner.Run(ExtractTool, args...)
	if !res.Success() {
		log.Logf("extracting %s: %s", p.Name, res.Err)
		return false
	}
	modDir := fp.Join(x.Dest, "lib", "modules")
	x.relocate(modDir, fp.Join(modDir, x.Kver, UpdatesDir), x.LiveModules, true)
	fwDir := fp.Join(x.Dest, "lib", "firmware")
	x.relocate(fwDir, fp.Join(fwDir, UpdatesDir), x.LiveFirmware, false)
	return true
}

// relocate copies each file under src to live and moves it to staging. Module
// files are flattened; other files keep their path relative to src.
func (x *Extractor) relocate(src, staging, live string, modules bool) {
	var files []string
	err := fp.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !os.IsNotExist(err) {
				log.Logf("error %s walking %s", err, path)
			}
			if d != nil && d.IsDir() && path != src {
				return fp.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == UpdatesDir && path != src {
				return fp.SkipDir
			}
			return nil
		}
		if modules && !IsModule(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		log.Logf("walking %s: %s", src, err)
	}
	for _, f := range files {
		rel := fp.Base(f)
		if !modules {
			rel, _ = fp.Rel(src, f)
		}
		if err := x.copyLive(f, fp.Join(live, rel), modules); err != nil {
			log.Logf("copying %s to %s: %s", f, live, err)
		}
		dest := fp.Join(staging, rel)
		if err := os.MkdirAll(fp.Dir(dest), 0755); err != nil {
			log.Logf("creating %s: %s", fp.Dir(dest), err)
			continue
		}
		if err := fileutil.MoveFile(f, dest); err != nil {
			log.Logf("moving %s to %s: %s", f, dest, err)
		}
	}
}

func (x *Extractor) copyLive(src, dest string, module bool) error {
	if err := os.MkdirAll(fp.Dir(dest), 0755); err != nil {
		return err
	}
	if module && x.Decompress && strings.HasSuffix(dest, ".xz") && fileutil.IsXZ(src) {
		return fileutil.DecompressXZ(src, strings.TrimSuffix(dest, ".xz"))
	}
	return fileutil.CopyFile(src, dest, 0)
}
