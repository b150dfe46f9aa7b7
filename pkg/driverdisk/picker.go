// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverdisk

import (
	"fmt"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/media"
	"github.com/bluemutedwisdom/anaconda/pkg/menu"
	"github.com/bluemutedwisdom/anaconda/pkg/repo"

	"github.com/dustin/go-humanize"
)

// Pick lets the operator choose devices to load drivers from, until they
// decline. Unlike Reconcile, the same device may be chosen repeatedly.
func (p *Processor) Pick() {
	for {
		devs := p.devices()
		items := make([]menu.Item, len(devs))
		for i, d := range devs {
			items[i] = menu.Text(d.String())
		}
		p.Menu.Title = "Driver disk device selection"
		c := p.Menu.Single(items, true)
		switch c {
		case menu.ChoiceRefresh:
			continue
		case menu.ChoiceNone:
			return
		}
		dev := devs[c]
		err := media.With(p.Mounter, dev.Path(), p.DeviceMount, dev.FsType, func(dir string) {
			if p.processDir(dir) == 0 {
				p.pickImage(dir)
			}
		})
		if err != nil {
			log.Msgf("Failed to mount %s: %s", dev.Path(), err)
		}
	}
}

// pickImage offers the images on mounted media. A failed mount re-prompts, at
// most MaxMountRetries times in total.
func (p *Processor) pickImage(dir string) {
	imgs := repo.FindISOs(dir)
	if len(imgs) == 0 {
		log.Msgf("No driver repositories or images found")
		return
	}
	items := make([]menu.Item, len(imgs))
	for i, img := range imgs {
		s := fmt.Sprintf("%s (%s)", img.Rel, humanize.Bytes(uint64(img.Size)))
		if p.isDriverISO(img.Path) {
			s += " [driver disk]"
		}
		items[i] = menu.Text(s)
	}
	for attempt := 0; attempt < p.MaxMountRetries; attempt++ {
		p.Menu.Title = "Choose driver disk ISO file"
		c := p.Menu.Single(items, false)
		if c < 0 {
			return
		}
		err := p.processImage(imgs[c])
		if err == nil {
			return
		}
		log.Msgf("Failed to mount %s: %s", imgs[c].Rel, err)
	}
	log.Msgf("Giving up after %d failed attempts", p.MaxMountRetries)
}
