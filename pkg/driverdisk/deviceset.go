// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverdisk

import (
	fp "path/filepath"
	"sort"
)

// A set of device identifiers (device paths).
type DeviceSet map[string]struct{}

func NewDeviceSet(ids ...string) DeviceSet {
	ds := make(DeviceSet, len(ids))
	for _, id := range ids {
		ds.Add(id)
	}
	return ds
}

func (ds DeviceSet) Add(id string)    { ds[id] = struct{}{} }
func (ds DeviceSet) Remove(id string) { delete(ds, id) }
func (ds DeviceSet) Len() int         { return len(ds) }

func (ds DeviceSet) Has(id string) bool {
	_, ok := ds[id]
	return ok
}

// Sorted returns the members in lexical order.
func (ds DeviceSet) Sorted() []string {
	ids := make([]string, 0, len(ds))
	for id := range ds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Difference returns a new set with the members of ds not in other.
func (ds DeviceSet) Difference(other DeviceSet) DeviceSet {
	diff := make(DeviceSet, len(ds))
	for id := range ds {
		if !other.Has(id) {
			diff.Add(id)
		}
	}
	return diff
}

// Pop removes and returns the smallest member. ds must not be empty.
func (ds DeviceSet) Pop() string {
	var min string
	first := true
	for id := range ds {
		if first || id < min {
			min, first = id, false
		}
	}
	ds.Remove(min)
	return min
}

// DeviceID returns the identifier used for the device at path: the path with
// symlinks such as /dev/disk/by-label/X resolved, if possible.
func DeviceID(path string) string {
	if real, err := fp.EvalSymlinks(path); err == nil {
		return real
	}
	return fp.Clean(path)
}
