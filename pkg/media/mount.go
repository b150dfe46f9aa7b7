// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package media mounts driver media: block devices and ISO image files.
package media

import (
	"errors"
	"fmt"
	"os"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"

	"github.com/u-root/u-root/pkg/mount"
	"golang.org/x/sys/unix"
)

var ENotMounted = errors.New("not mounted")

type Mounter interface {
	// Mount source, a block device or an image file, read-only at target.
	// fsType may be empty if unknown.
	Mount(source, target, fsType string) error
	Unmount(target string) error
}

// System mounts with the mount syscall, falling back to the mount binary for
// image files and unknown filesystem types.
type System struct {
	MountCmd, UmountCmd string
}

var _ Mounter = (*System)(nil)

func (s *System) Mount(source, target, fsType string) error {
	fi, err := os.Stat(source)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(target, 0755); err != nil {
		return err
	}
	opts := "ro"
	if fi.Mode().IsRegular() {
		opts = "loop,ro"
	} else if fsType != "" {
		_, err = mount.Mount(source, target, fsType, "", unix.MS_RDONLY)
		if err == nil {
			return nil
		}
		log.Logf("mounting %s (%s) on %s: %s, trying %s", source, fsType, target, err, s.MountCmd)
	}
	res := runner.Run(s.MountCmd, "-o", opts, source, target)
	if !res.Success() {
		return fmt.Errorf("mount %s: %w", source, res.Err)
	}
	return nil
}

func (s *System) Unmount(target string) error {
	err := mount.Unmount(target, false, false)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("%s: %w", target, ENotMounted)
	}
	log.Logf("unmounting %s: %s, trying %s", target, err, s.UmountCmd)
	res := runner.Run(s.UmountCmd, target)
	if !res.Success() {
		return fmt.Errorf("umount %s: %w", target, res.Err)
	}
	return nil
}

// With mounts source at target, calls fn, and unmounts again whatever fn does.
func With(m Mounter, source, target, fsType string, fn func(dir string)) error {
	if err := m.Mount(source, target, fsType); err != nil {
		return err
	}
	defer func() {
		if err := m.Unmount(target); err != nil {
			log.Logf("unmounting %s: %s", target, err)
		}
	}()
	fn(target)
	return nil
}
