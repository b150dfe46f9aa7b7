// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package repo finds driver repositories and ISO images on mounted media.
//
//A driver repository is a directory containing a marker file and a packages
//directory, which in turn has a subdirectory named for the machine
//architecture. The packages/arch directory is what gets handed to dd_list.
package repo

import (
	"os"
	fp "path/filepath"
	"sort"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
)

// Names that make a directory a driver repository.
type Layout struct {
	Marker   string //file identifying a driver disk
	Packages string //dir containing per-arch package dirs
	Ask      string //file requesting interactive package selection
}

var DefaultLayout = Layout{
	Marker:   "rhdd3",
	Packages: "rpms",
	Ask:      "rhdd3.ask",
}

// Qualifies reports whether dir is a repository root for arch.
func (l Layout) Qualifies(dir, arch string) bool {
	if !isFile(fp.Join(dir, l.Marker)) {
		return false
	}
	return isDir(fp.Join(dir, l.Packages)) && isDir(fp.Join(dir, l.Packages, arch))
}

// Find walks root, following symlinks, and returns the package dir of every
// repository for arch in walk order. Directories reachable more than once are
// only visited the first time.
func Find(root, arch string, l Layout) []string {
	var repos []string
	visited := make(map[string]bool)
	var walk func(dir string)
	walk = func(dir string) {
		real, err := fp.EvalSymlinks(dir)
		if err != nil {
			log.Logf("resolving %s: %s", dir, err)
			return
		}
		if visited[real] {
			return
		}
		visited[real] = true
		if l.Qualifies(dir, arch) {
			repos = append(repos, fp.Join(dir, l.Packages, arch))
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Logf("reading %s: %s", dir, err)
			return
		}
		for _, e := range entries {
			p := fp.Join(dir, e.Name())
			if e.IsDir() || (e.Type()&os.ModeSymlink != 0 && isDir(p)) {
				walk(p)
			}
		}
	}
	walk(root)
	return repos
}

// AskRequested reports whether the repository whose package dir is pkgDir
// carries the marker requesting interactive selection.
func AskRequested(pkgDir string, l Layout) bool {
	if l.Ask == "" {
		return false
	}
	return isFile(fp.Join(fp.Dir(fp.Dir(pkgDir)), l.Ask))
}

// An ISO image file found on some media.
type Image struct {
	Path string //absolute
	Rel  string //relative to the search root
	Size int64
}

// FindISOs returns all files under root with an iso extension (any case),
// sorted by relative path. Paths are based on root with symlinks resolved.
func FindISOs(root string) []Image {
	var imgs []Image
	if real, err := fp.EvalSymlinks(root); err == nil {
		root = real
	}
	err := fp.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Logf("error %s walking %s", err, path)
			if d != nil && d.IsDir() {
				return fp.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(fp.Ext(path), ".iso") {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		rel, _ := fp.Rel(root, path)
		imgs = append(imgs, Image{Path: path, Rel: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		log.Logf("searching %s for images: %s", root, err)
	}
	sort.Slice(imgs, func(i, j int) bool { return imgs[i].Rel < imgs[j].Rel })
	return imgs
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
