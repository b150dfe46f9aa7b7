// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package fileutil contains file and directory helpers used while staging
//driver updates.
package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bluemutedwisdom/anaconda/pkg/log"

	"github.com/ulikunitz/xz"
)

var (
	xzId = [6]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00} // fd 37 7a 58 5a 00 -> xz archive
)

func ReadHeader(fname string, n int64) (head []byte, err error) {
	f, err := os.Open(fname)
	if err != nil {
		return
	}
	defer f.Close()
	head, err = io.ReadAll(io.LimitReader(f, n))
	if int64(len(head)) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return
}

func IsXZ(fname string) bool {
	head, err := ReadHeader(fname, int64(len(xzId)))
	if err != nil {
		log.Logf("failed to read head bytes from %s: %s", fname, err)
		return false
	}
	return bytes.Equal(head, xzId[:])
}

// DecompressXZ writes the decompressed content of xz file src to dest, with
// src's permissions.
func DecompressXZ(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	xzr, err := xz.NewReader(in)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, xzr); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("decompressing %s: %w", src, err)
	}
	return out.Close()
}

// NextNumbered returns prefix+N for the smallest N >= 1 such that nothing
// exists at that path.
func NextNumbered(prefix string) string {
	for n := 1; ; n++ {
		name := prefix + strconv.Itoa(n)
		_, err := os.Lstat(name)
		if errors.Is(err, os.ErrNotExist) {
			return name
		}
		if err != nil {
			log.Logf("checking %s: %s", name, err)
		}
	}
}
