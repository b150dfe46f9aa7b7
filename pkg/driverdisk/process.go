// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package driverdisk finds driver disks, lets the operator choose from them and
//applies the chosen driver packages to the running installer.
package driverdisk

import (
	"io"

	"github.com/bluemutedwisdom/anaconda/pkg/config"
	"github.com/bluemutedwisdom/anaconda/pkg/driverpkg"
	"github.com/bluemutedwisdom/anaconda/pkg/hw/block"
	"github.com/bluemutedwisdom/anaconda/pkg/hw/kmod"
	"github.com/bluemutedwisdom/anaconda/pkg/hw/udev"
	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/media"
	"github.com/bluemutedwisdom/anaconda/pkg/menu"
	"github.com/bluemutedwisdom/anaconda/pkg/repo"
)

type Reloader interface {
	Reload()
}

// Processor applies driver repositories. It is not safe for concurrent use;
// devices are handled one at a time, on one mount point per level.
type Processor struct {
	Layout           repo.Layout
	Arch             string
	Kver             string
	InstallerVersion string
	Label            string //label of automatically used driver disks
	Interactive      bool   //ask which packages to apply, even without an ask marker
	Unattended       bool   //nobody to prompt; ask markers are ignored
	Ledger           driverpkg.Ledger
	CopyPrefix       string
	DeviceMount      string
	ISOMount         string
	MaxMountRetries  int

	Extractor *driverpkg.Extractor
	Reloader  Reloader
	Mounter   media.Mounter
	Menu      *menu.Menu

	//replaced in tests
	list        func(repo, kver, installerVer string) []driverpkg.DriverPackage
	extract     func(p *driverpkg.DriverPackage) bool
	scan        func(label string) []string
	devices     func() []block.DeviceDescriptor
	isDriverISO func(path string) bool
}

// New creates a Processor from cfg. Menus read from in and write to out.
func New(cfg *config.Configuration, in io.Reader, out io.Writer) *Processor {
	driverpkg.ListTool = cfg.Tools.List
	driverpkg.ExtractTool = cfg.Tools.Extract
	block.Blkid = cfg.Tools.Blkid
	block.Verbose = cfg.Behavior.Verbose
	udev.Udevadm = cfg.Tools.Udevadm
	p := &Processor{
		Layout: repo.Layout{
			Marker:   cfg.Discovery.Marker,
			Packages: cfg.Discovery.Packages,
			Ask:      cfg.Discovery.Ask,
		},
		Arch:             cfg.System.Arch,
		Kver:             cfg.System.Kernel,
		InstallerVersion: cfg.System.InstallerVersion,
		Label:            cfg.Discovery.Label,
		Interactive:      cfg.Behavior.Interactive,
		Ledger:           driverpkg.Ledger{Path: cfg.Paths.Ledger},
		CopyPrefix:       cfg.Paths.RepoCopyPrefix,
		DeviceMount:      cfg.Paths.DeviceMount,
		ISOMount:         cfg.Paths.ISOMount,
		MaxMountRetries:  cfg.Behavior.MaxMountRetries,
		Extractor: &driverpkg.Extractor{
			Kver:         cfg.System.Kernel,
			Dest:         cfg.Paths.Updates,
			LiveModules:  cfg.LiveModules(),
			LiveFirmware: cfg.Paths.FirmwareUpdates,
			Decompress:   cfg.Behavior.DecompressModules,
		},
		Mounter: &media.System{MountCmd: cfg.Tools.Mount, UmountCmd: cfg.Tools.Umount},
		Menu:    menu.New(in, out),
	}
	p.Menu.PageSize = cfg.Behavior.PageSize
	r := kmod.NewReloader(kmod.Baseline(cfg.Paths.ModuleSnapshot), cfg.Behavior.SettleDelay)
	r.Depmod, r.Rmmod = cfg.Tools.Depmod, cfg.Tools.Rmmod
	p.Reloader = r
	p.setDefaults()
	return p
}

func (p *Processor) setDefaults() {
	if p.list == nil {
		p.list = driverpkg.List
	}
	if p.extract == nil {
		p.extract = p.Extractor.Extract
	}
	if p.scan == nil {
		p.scan = block.DevicesByLabel
	}
	if p.devices == nil {
		p.devices = block.AllDevices
	}
	if p.isDriverISO == nil {
		p.isDriverISO = func(path string) bool {
			ok, err := media.IsDriverISO(path, p.Layout.Marker, p.Layout.Packages)
			if err != nil {
				log.Logf("probing %s: %s", path, err)
			}
			return ok
		}
	}
	if p.MaxMountRetries < 1 {
		p.MaxMountRetries = 1
	}
}

// ProcessRepo applies the packages in pkgDir. Packages are chosen by the
// operator if the repository asks for it or the processor is interactive;
// otherwise, or if the processor is unattended, all are applied. Returns false
// if nothing was selected.
func (p *Processor) ProcessRepo(pkgDir string) bool {
	pkgs := p.list(pkgDir, p.Kver, p.InstallerVersion)
	if len(pkgs) == 0 {
		log.Msgf("No driver packages for this system in %s", pkgDir)
		return false
	}
	var selected []*driverpkg.DriverPackage
	ask := p.Interactive || repo.AskRequested(pkgDir, p.Layout)
	if ask && p.Unattended {
		log.Msgf("%s asks which drivers to apply, but prompts are disabled; applying all", pkgDir)
		ask = false
	}
	if ask {
		items := make([]menu.Toggler, len(pkgs))
		for i := range pkgs {
			items[i] = &pkgs[i]
		}
		p.Menu.Title = "Select drivers to install from " + pkgDir
		for _, it := range p.Menu.Multi(items) {
			selected = append(selected, it.(*driverpkg.DriverPackage))
		}
		if len(selected) == 0 {
			log.Msgf("No drivers selected from %s", pkgDir)
			return false
		}
	} else {
		for i := range pkgs {
			selected = append(selected, &pkgs[i])
		}
	}

	var names []string
	for _, pkg := range selected {
		log.Msgf("Extracting %s", pkg.Name)
		if !p.extract(pkg) {
			log.Msgf("Failed to extract %s", pkg.Name)
			continue
		}
		if pkg.Flags.ProvidesDrivers() {
			names = append(names, pkg.Name)
		}
	}
	if err := p.Ledger.Append(names...); err != nil {
		log.Logf("recording packages in %s: %s", p.Ledger.Path, err)
	}
	if dest, err := driverpkg.CopyRepo(pkgDir, p.CopyPrefix); err != nil {
		log.Logf("%s", err)
	} else {
		log.Logf("copied %s to %s", pkgDir, dest)
	}
	if len(names) > 0 {
		p.Reloader.Reload()
	}
	return true
}

// processDir applies every repository under dir and returns how many were
// found.
func (p *Processor) processDir(dir string) int {
	repos := repo.Find(dir, p.Arch, p.Layout)
	for _, r := range repos {
		log.Msgf("Found driver repository %s", r)
		p.ProcessRepo(r)
	}
	return len(repos)
}

// processImage loop-mounts an image and applies the repositories in it.
func (p *Processor) processImage(img repo.Image) error {
	return media.With(p.Mounter, img.Path, p.ISOMount, "iso9660", func(dir string) {
		if p.processDir(dir) == 0 {
			log.Msgf("No driver repository in %s", img.Rel)
		}
	})
}

// processMedia applies the repositories on mounted media. Without any, images
// on the media that look like driver disks are used instead.
func (p *Processor) processMedia(dir string) {
	if p.processDir(dir) > 0 {
		return
	}
	for _, img := range repo.FindISOs(dir) {
		if !p.isDriverISO(img.Path) {
			log.Logf("%s is not a driver disk image", img.Path)
			continue
		}
		if err := p.processImage(img); err != nil {
			log.Msgf("Failed to mount %s: %s", img.Rel, err)
		}
	}
}

// ProcessNetwork applies drivers fetched from the network into dir: any
// repositories in it and any images, which are not inspected since they were
// explicitly requested.
func (p *Processor) ProcessNetwork(dir string) {
	p.processDir(dir)
	for _, img := range repo.FindISOs(dir) {
		if err := p.processImage(img); err != nil {
			log.Msgf("Failed to mount %s: %s", img.Rel, err)
		}
	}
}
