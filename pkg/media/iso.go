// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package media

import (
	"os"
	"strings"

	"github.com/kdomanski/iso9660"
)

// IsDriverISO reports whether the image at path looks like a driver disk: a
// marker file and a packages dir in the root directory. Name comparison
// ignores case and ISO9660 version suffixes.
func IsDriverISO(path, marker, packages string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	img, err := iso9660.OpenImage(f)
	if err != nil {
		return false, err
	}
	root, err := img.RootDir()
	if err != nil {
		return false, err
	}
	children, err := root.GetChildren()
	if err != nil {
		return false, err
	}
	var haveMarker, havePackages bool
	for _, c := range children {
		name := isoName(c.Name())
		switch {
		case !c.IsDir() && strings.EqualFold(name, marker):
			haveMarker = true
		case c.IsDir() && strings.EqualFold(name, packages):
			havePackages = true
		}
	}
	return haveMarker && havePackages, nil
}

// strip version (;1) and the dot of an empty extension
func isoName(n string) string {
	if i := strings.LastIndex(n, ";"); i >= 0 {
		n = n[:i]
	}
	return strings.TrimSuffix(n, ".")
}
