// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package kmod forces the kernel to pick up updated modules: it unloads what
//was loaded since startup and lets udev load the new versions.
package kmod

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bluemutedwisdom/anaconda/pkg/hw/udev"
	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

const ProcModules = "/proc/modules"

type ModuleSet map[string]struct{}

func (ms ModuleSet) Has(m string) bool {
	_, ok := ms[m]
	return ok
}

// Sorted returns the members of ms in lexical order.
func (ms ModuleSet) Sorted() []string {
	names := make([]string, 0, len(ms))
	for m := range ms {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// Minus returns the modules in ms that are not in other.
func (ms ModuleSet) Minus(other ModuleSet) ModuleSet {
	diff := make(ModuleSet)
	for m := range ms {
		if !other.Has(m) {
			diff[m] = struct{}{}
		}
	}
	return diff
}

// ParseModuleList reads module names from lsmod or /proc/modules output. The
// name is the first field of each line; lsmod's header is skipped.
func ParseModuleList(r io.Reader) (ModuleSet, error) {
	ms := make(ModuleSet)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "Module" {
			continue
		}
		ms[fields[0]] = struct{}{}
	}
	return ms, scanner.Err()
}

// ReadModuleList parses the module list in the named file.
func ReadModuleList(path string) (ModuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseModuleList(f)
}

// Baseline reads the module snapshot taken when the installer started. A
// missing or unreadable snapshot results in an empty set.
func Baseline(snapshot string) ModuleSet {
	ms, err := ReadModuleList(snapshot)
	if err != nil {
		log.Logf("reading module snapshot: %s; assuming no modules were loaded", err)
		return make(ModuleSet)
	}
	return ms
}

type Reloader struct {
	Baseline ModuleSet
	Loaded   string        //file listing currently loaded modules; ProcModules if empty
	Settle   time.Duration //delay between unloading and coldplug
	Depmod   string
	Rmmod    string

	sleep    func(time.Duration)
	coldplug func() error
}

func NewReloader(baseline ModuleSet, settle time.Duration) *Reloader {
	return &Reloader{
		Baseline: baseline,
		Loaded:   ProcModules,
		Settle:   settle,
		Depmod:   "depmod",
		Rmmod:    "rmmod",
		sleep:    time.Sleep,
		coldplug: udev.Replay,
	}
}

// Reload regenerates module dependencies, unloads modules loaded since the
// baseline and replays udev events after the settle delay. Individual failures are
// logged and do not stop the sequence.
func (r *Reloader) Reload() {
	if res := runner.Run(r.Depmod, "-a"); !res.Success() {
		log.Logf("depmod: %s", res.Err)
	}
	loadedPath := r.Loaded
	if loadedPath == "" {
		loadedPath = ProcModules
	}
	loaded, err := ReadModuleList(loadedPath)
	if err != nil {
		log.Logf("reading loaded modules: %s", err)
	}
	unload := loaded.Minus(r.Baseline).Sorted()
	if len(unload) > 0 {
		log.Logf("unloading modules %v", unload)
	}
	for _, m := range unload {
		if res := runner.Run(r.Rmmod, m); !res.Success() {
			log.Logf("rmmod %s: %s", m, res.Err)
		}
	}
	r.sleep(r.Settle)
	if err := r.coldplug(); err != nil {
		log.Logf("coldplug: %s", err)
	}
}
