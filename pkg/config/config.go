// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package config holds the settings of driver-updates, read from an optional
//TOML file. Anything not in the file has a default suited to the installer
//initramfs.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	fp "path/filepath"
	"strconv"
	"time"

	"github.com/bluemutedwisdom/anaconda/pkg/fileutil/kver"
	"github.com/bluemutedwisdom/anaconda/pkg/log"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

const DefaultPath = "/etc/driver-updates.toml"

// Setting this env var to any true value enables verbose console output.
const VerboseEnv = "DD_VERBOSE"

type Configuration struct {
	Discovery struct {
		Label        string   `toml:"label" default:"OEMDRV" validate:"required"`                                                     // Filesystem label searched for automatically
		Marker       string   `toml:"marker" default:"rhdd3" validate:"required"`                                                     // File marking a driver repository
		Packages     string   `toml:"packages" default:"rpms" validate:"required"`                                                    // Dir in a repository holding per-arch package dirs
		Ask          string   `toml:"ask" default:"rhdd3.ask"`                                                                        // File next to the marker requesting interactive selection. Empty to disable.
		NetProtocols []string `toml:"net_protocols" default:"[\"http\",\"https\",\"ftp\",\"nfs\",\"nfs4\"]" validate:"dive,required"` // Boot argument protocols handled by the network fetch step
	} `toml:"discovery"`

	System struct {
		Arch             string `toml:"arch"`              // Package arch dir; uname machine if empty
		Kernel           string `toml:"kernel"`            // Kernel release; uname release if empty
		InstallerVersion string `toml:"installer_version"` // Passed to dd_list; build version if empty
	} `toml:"system"`

	Paths struct {
		ModuleSnapshot  string `toml:"module_snapshot" default:"/tmp/dd_modules" validate:"required"`        // Modules loaded when the installer started
		Args            string `toml:"args" default:"/tmp/dd_args" validate:"required"`                      // Driver disk boot arguments
		KickstartArgs   string `toml:"kickstart_args" default:"/tmp/dd_args_ks" validate:"required"`         // Driver disk arguments from kickstart
		NetDrivers      string `toml:"net_drivers" default:"/tmp/dd_net" validate:"required"`                // Drivers fetched from the network
		Updates         string `toml:"updates" default:"/updates" validate:"required"`                       // Extraction root
		ModulesRoot     string `toml:"modules_root" default:"/lib/modules" validate:"required"`              // Live modules; updates go to <root>/<kernel>/updates
		FirmwareUpdates string `toml:"firmware_updates" default:"/lib/firmware/updates" validate:"required"` // Live firmware updates
		RepoCopyPrefix  string `toml:"repo_copy_prefix" default:"/run/install/DD-" validate:"required"`      // Repositories are copied to <prefix><N>
		Ledger          string `toml:"ledger" default:"/run/install/dd_packages" validate:"required"`        // Names of applied packages
		DeviceMount     string `toml:"device_mount" default:"/media/DD" validate:"required"`
		ISOMount        string `toml:"iso_mount" default:"/media/DDISO" validate:"required"`
		LogFile         string `toml:"log_file" default:"/tmp/driver-updates.log"` // Empty to disable the file log
		Kmsg            string `toml:"kmsg" default:"/dev/kmsg"`                   // Operator messages are copied to the kernel log. Empty to disable.
	} `toml:"paths"`

	Tools struct {
		List    string `toml:"list" default:"dd_list" validate:"required"`
		Extract string `toml:"extract" default:"dd_extract" validate:"required"`
		Blkid   string `toml:"blkid" default:"blkid" validate:"required"`
		Depmod  string `toml:"depmod" default:"depmod" validate:"required"`
		Rmmod   string `toml:"rmmod" default:"rmmod" validate:"required"`
		Udevadm string `toml:"udevadm" default:"udevadm" validate:"required"`
		Mount   string `toml:"mount" default:"mount" validate:"required"`
		Umount  string `toml:"umount" default:"umount" validate:"required"`
	} `toml:"tools"`

	Behavior struct {
		Interactive       bool          `toml:"interactive" default:"false"`                    // Always ask which packages to apply
		Verbose           bool          `toml:"verbose" default:"false"`                        // Show technical messages on the console
		DecompressModules bool          `toml:"decompress_modules" default:"false"`             // Store xz compressed modules uncompressed in the live dir
		SettleDelay       time.Duration `toml:"settle_delay" default:"2s"`                      // Wait between unloading modules and udev trigger
		PageSize          int           `toml:"page_size" default:"20" validate:"min=1"`
		MaxMountRetries   int           `toml:"max_mount_retries" default:"3" validate:"min=1"` // ISO mount attempts in the picker
	} `toml:"behavior"`
}

// LiveModules is the dir modules are copied to for the running kernel.
func (c *Configuration) LiveModules() string {
	return fp.Join(c.Paths.ModulesRoot, c.System.Kernel, "updates")
}

// Defaults returns a configuration with only default values.
func Defaults() (*Configuration, error) {
	c := new(Configuration)
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return c, nil
}

// Load reads the file at path over the defaults. A missing file is not an
// error. Unset system values are filled in from uname.
func Load(path string) (*Configuration, error) {
	c, err := Defaults()
	if err != nil {
		return nil, err
	}
	if path != "" {
		_, err = toml.DecodeFile(path, c)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Logf("config %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	}
	if v, err := strconv.ParseBool(os.Getenv(VerboseEnv)); err == nil && v {
		c.Behavior.Verbose = true
	}
	if c.System.Arch == "" || c.System.Kernel == "" {
		ki, err := kver.Running()
		if err != nil {
			log.Logf("determining kernel version: %s", err)
		}
		if c.System.Arch == "" {
			c.System.Arch = ki.Machine
		}
		if c.System.Kernel == "" {
			c.System.Kernel = ki.Release
		}
	}
	if err = validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// WriteDefaults writes a TOML file with all default values to w.
func WriteDefaults(w io.Writer) error {
	c, err := Defaults()
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "    "
	if err = enc.Encode(c); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}
