// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Subpackages find driver disks attached to a machine being installed and
// load the kernel modules and firmware they carry, so that the installer can
// see hardware its own kernel has no drivers for.
//
// The driver-updates command runs once from the installer initramfs. It:
//
//    - looks for devices labeled OEMDRV, and devices named by the inst.dd
//      boot argument. Devices named in kickstart are left for a later run.
//    - mounts each device, finds driver repositories on it (dirs holding the
//      rhdd3 marker and an rpms/<arch> dir), and extracts the packages that
//      match the running kernel. If a device holds no repository, driver disk
//      ISO images on it are loop-mounted and used instead.
//    - unloads modules that were loaded after the initramfs snapshot, so that
//      udev loads the updated ones when devices are replayed.
//    - with a bare inst.dd argument, lets the operator pick further devices,
//      images and packages from text menus.
//
// Results are recorded under /run/install for the installer to pick up: a
// copy of each repository used, and a list of the packages applied.
//
// Use `mage` to build a static binary for the initramfs.
//
package anaconda
