// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverpkg

import (
	"fmt"
	"os"
	fp "path/filepath"

	"github.com/bluemutedwisdom/anaconda/pkg/fileutil"
)

// Ledger records the names of applied driver packages, one per line, so the
// same set can be installed on the target system. It is only ever appended to.
type Ledger struct {
	Path string
}

func (l Ledger) Append(names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if err := os.MkdirAll(fp.Dir(l.Path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, err = fmt.Fprintln(f, n); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// CopyRepo copies the tree at repo to prefix<N>, using the first N >= 1 not
// already taken, and returns the new dir.
func CopyRepo(repo, prefix string) (string, error) {
	if err := os.MkdirAll(fp.Dir(prefix), 0755); err != nil {
		return "", err
	}
	dest := fileutil.NextNumbered(prefix)
	if err := fileutil.CopyTree(repo, dest); err != nil {
		return "", fmt.Errorf("copying %s to %s: %w", repo, dest, err)
	}
	return dest, nil
}
