// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	fp "path/filepath"
	"syscall"

	"github.com/bluemutedwisdom/anaconda/pkg/log"

	"golang.org/x/sys/unix"
)

func CopyFile(src, dest string, destFlags int) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return copyFileI(src, dest, info, destFlags)
}

// copy, preserving mode, owner and mtime
func copyFileI(src, dest string, info os.FileInfo, destFlags int) error {
	out, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC|destFlags, 0666)
	if err != nil {
		return err
	}
	defer out.Close()
	in, err := os.OpenFile(src, os.O_RDONLY, 0400)
	if err != nil {
		return err
	}
	defer in.Close()
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if n < info.Size() {
		return fmt.Errorf("copied %d bytes, expected %d", n, info.Size())
	}
	err = out.Chmod(info.Mode().Perm())
	if err != nil {
		return err
	}
	chownLike(dest, info, out.Chown)
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}

func chownLike(path string, info os.FileInfo, chown func(uid, gid int) error) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	if err := chown(int(sys.Uid), int(sys.Gid)); err != nil {
		log.Logf("error %s setting uid/gid of %s", err, path)
	}
}

// MoveFile renames src to dest, falling back to copy and delete when they are
// on different filesystems.
func MoveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil || !errors.Is(err, unix.EXDEV) {
		return err
	}
	if err = CopyFile(src, dest, 0); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyTree copies the tree rooted at src to dest, which must not exist yet.
// Modes, owners and times are preserved. If src itself is a symlink, the dir
// it points to is copied; symlinks below src are recreated, not followed.
func CopyTree(src, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("copy %s: %w", dest, os.ErrExist)
	}
	src, err := fp.EvalSymlinks(src)
	if err != nil {
		return err
	}
	var walker fp.WalkFunc = func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Logf("error %s walking %s", err, path)
			return err
		}
		rel, err := fp.Rel(src, path)
		if err != nil {
			return err
		}
		destPath := fp.Join(dest, rel)
		switch {
		case info.IsDir():
			if err = os.Mkdir(destPath, info.Mode().Perm()); err != nil {
				log.Logf("error %s creating %s", err, destPath)
				return err
			}
			chownLike(destPath, info, func(u, g int) error { return os.Lchown(destPath, u, g) })
			return nil
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(target, destPath)
		case info.Mode().IsRegular():
			if err = copyFileI(path, destPath, info, 0); err != nil {
				log.Logf("error %s copying %s to %s", err, path, destPath)
			}
			return err
		}
		log.Logf("skipping special file %s", path)
		return nil
	}
	return fp.Walk(src, walker)
}
