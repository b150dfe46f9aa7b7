// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverdisk

import (
	"errors"
	"fmt"
	"os"
	fp "path/filepath"
	"strings"
	"testing"

	"github.com/bluemutedwisdom/anaconda/pkg/driverpkg"
	"github.com/bluemutedwisdom/anaconda/pkg/hw/block"
	"github.com/bluemutedwisdom/anaconda/pkg/menu"
	"github.com/bluemutedwisdom/anaconda/pkg/repo"
)

// world fakes the devices, tools and kernel a Processor works with. Mounting
// is simulated by symlinking the mount point to a dir holding the content.
type world struct {
	t        *testing.T
	tmp      string
	content  map[string]string   //mount source -> dir with its files
	reveals  map[string][]string //mounting source makes these devices appear
	labeled  DeviceSet           //devices currently carrying the label
	failing  map[string]int      //source -> number of mounts that fail
	descs    []block.DeviceDescriptor
	isDD     map[string]bool //image path -> is driver disk
	badPkgs  map[string]bool //packages failing extraction
	mounts   []string        //sources, in mount order
	extracts []string
	reloads  int
	scans    int
	devLists int
}

func newWorld(t *testing.T) *world {
	tmp, err := fp.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &world{
		t:       t,
		tmp:     tmp,
		content: make(map[string]string),
		reveals: make(map[string][]string),
		labeled: NewDeviceSet(),
		failing: make(map[string]int),
		isDD:    make(map[string]bool),
		badPkgs: make(map[string]bool),
	}
}

func (w *world) Mount(source, target, fsType string) error {
	if w.failing[source] > 0 {
		w.failing[source]--
		return errors.New("wrong medium type")
	}
	dir, ok := w.content[source]
	if !ok {
		return fmt.Errorf("%s: no medium", source)
	}
	if err := os.MkdirAll(fp.Dir(target), 0755); err != nil {
		return err
	}
	//fails if target is still in use
	if err := os.Symlink(dir, target); err != nil {
		return err
	}
	w.mounts = append(w.mounts, source)
	for _, d := range w.reveals[source] {
		w.labeled.Add(d)
	}
	return nil
}

func (w *world) Unmount(target string) error { return os.Remove(target) }

func (w *world) Reload() { w.reloads++ }

func (w *world) count(source string) int {
	n := 0
	for _, m := range w.mounts {
		if m == source {
			n++
		}
	}
	return n
}

// dir with no files, standing in for media without drivers
func (w *world) emptyMedia(name string) string {
	dir := fp.Join(w.tmp, "content", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.t.Fatal(err)
	}
	return dir
}

// driverDisk creates the content of a driver disk with the named packages.
// Names starting with "kmod-" carry modules.
func (w *world) driverDisk(name string, ask bool, pkgs ...string) string {
	dir := w.emptyMedia(name)
	pkgDir := fp.Join(dir, "rpms", "x86_64")
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		w.t.Fatal(err)
	}
	files := map[string]string{fp.Join(dir, "rhdd3"): "Driver Update Disk version 3"}
	if ask {
		files[fp.Join(dir, "rhdd3.ask")] = ""
	}
	var list strings.Builder
	for _, p := range pkgs {
		flags := "other"
		if strings.HasPrefix(p, "kmod-") {
			flags = "modules"
		}
		fmt.Fprintf(&list, "%s.rpm\n%s\n%s\ndescription of %s\n---\n", p, p, flags, p)
		files[fp.Join(pkgDir, p+".rpm")] = "rpm"
	}
	files[fp.Join(pkgDir, "list.txt")] = list.String()
	for f, c := range files {
		if err := os.WriteFile(f, []byte(c), 0644); err != nil {
			w.t.Fatal(err)
		}
	}
	return dir
}

func (w *world) addImage(mediaDir, name, contentDir string, dd bool) string {
	path := fp.Join(mediaDir, name)
	if err := os.WriteFile(path, make([]byte, 2048), 0644); err != nil {
		w.t.Fatal(err)
	}
	w.content[path] = contentDir
	w.isDD[path] = dd
	return path
}

func (w *world) processor(input string, interactive bool) *Processor {
	p := &Processor{
		Layout:          repo.DefaultLayout,
		Arch:            "x86_64",
		Kver:            "5.14.0",
		Label:           "OEMDRV",
		Interactive:     interactive,
		Ledger:          driverpkg.Ledger{Path: fp.Join(w.tmp, "run", "install", "dd_packages")},
		CopyPrefix:      fp.Join(w.tmp, "run", "install", "DD-"),
		DeviceMount:     fp.Join(w.tmp, "media", "DD"),
		ISOMount:        fp.Join(w.tmp, "media", "DDISO"),
		MaxMountRetries: 3,
		Reloader:        w,
		Mounter:         w,
		Menu:            menu.New(strings.NewReader(input), &strings.Builder{}),
		list: func(repo, kver, ver string) []driverpkg.DriverPackage {
			data, err := os.ReadFile(fp.Join(repo, "list.txt"))
			if err != nil {
				return nil
			}
			pkgs := driverpkg.ParseList(string(data))
			for i := range pkgs {
				pkgs[i].Repo = repo
			}
			return pkgs
		},
		extract: func(p *driverpkg.DriverPackage) bool {
			if w.badPkgs[p.Name] {
				return false
			}
			w.extracts = append(w.extracts, p.Name)
			return true
		},
		scan: func(string) []string {
			w.scans++
			return w.labeled.Sorted()
		},
		devices: func() []block.DeviceDescriptor {
			w.devLists++
			return w.descs
		},
		isDriverISO: func(path string) bool { return w.isDD[path] },
	}
	p.setDefaults()
	return p
}

func (w *world) ledger() []string {
	data, err := os.ReadFile(fp.Join(w.tmp, "run", "install", "dd_packages"))
	if err != nil {
		return nil
	}
	return strings.Fields(string(data))
}

func (w *world) copies() []string {
	matches, _ := fp.Glob(fp.Join(w.tmp, "run", "install", "DD-*"))
	return matches
}
