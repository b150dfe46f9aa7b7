// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverdisk

import (
	"os"

	"github.com/bluemutedwisdom/anaconda/pkg/bootargs"
	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/media"
)

// Reconcile processes each device in todo that is not in skip. Loading drivers
// can make new devices appear, so the label is searched again after each
// device; devices found that way join todo unless already done or skipped.
// Returns the processed devices. Nothing is ever processed twice, so this
// terminates once the set of labeled devices stops growing.
func (p *Processor) Reconcile(todo, skip DeviceSet) (done DeviceSet) {
	todo = todo.Difference(skip)
	done = NewDeviceSet()
	for todo.Len() > 0 {
		dev := todo.Pop()
		if skip.Has(dev) {
			continue
		}
		p.processDevice(dev)
		done.Add(dev)
		for _, d := range p.scan(p.Label) {
			id := DeviceID(d)
			if done.Has(id) || todo.Has(id) || skip.Has(id) {
				continue
			}
			log.Logf("new driver disk %s appeared", id)
			todo.Add(id)
		}
	}
	return done
}

func (p *Processor) processDevice(dev string) {
	log.Msgf("Examining %s", dev)
	err := media.With(p.Mounter, dev, p.DeviceMount, "", p.processMedia)
	if err != nil {
		log.Msgf("Failed to mount %s: %s", dev, err)
	}
}

// Inputs of a run, gathered from marker files.
type Plan struct {
	NetDir      string    //if set, only drivers in this dir are used
	Todo        DeviceSet //devices to examine
	Skip        DeviceSet //devices already handled by an earlier run
	Interactive bool      //let the operator pick devices and packages
}

// PlanOptions names the marker files a Plan is built from.
type PlanOptions struct {
	NetDir        string
	NetDrivers    string //dir of pre-downloaded network drivers
	Args          string
	KickstartArgs string
	NetProtocols  []string
}

// NewPlan builds the plan for a run. An explicit network dir, or the
// pre-downloaded drivers dir if present, replaces device scanning. Otherwise
// todo holds devices carrying the label and devices named by boot arguments,
// while devices named in kickstart are skipped.
func (p *Processor) NewPlan(o PlanOptions) Plan {
	plan := Plan{Todo: NewDeviceSet(), Skip: NewDeviceSet()}
	plan.NetDir = o.NetDir
	if plan.NetDir == "" && o.NetDrivers != "" {
		if fi, err := os.Stat(o.NetDrivers); err == nil && fi.IsDir() {
			plan.NetDir = o.NetDrivers
		}
	}
	if plan.NetDir != "" {
		return plan
	}
	args := bootargs.Read(o.Args, o.NetProtocols)
	plan.Interactive = args.Interactive
	for _, d := range p.scan(p.Label) {
		plan.Todo.Add(DeviceID(d))
	}
	for _, d := range args.Devices() {
		plan.Todo.Add(DeviceID(d))
	}
	ks := bootargs.Read(o.KickstartArgs, o.NetProtocols)
	for _, d := range ks.Devices() {
		plan.Skip.Add(DeviceID(d))
	}
	return plan
}

// Execute carries out plan and returns the devices processed automatically.
func (p *Processor) Execute(plan Plan) DeviceSet {
	if plan.NetDir != "" {
		log.Msgf("Loading network drivers from %s", plan.NetDir)
		p.ProcessNetwork(plan.NetDir)
		return NewDeviceSet()
	}
	if plan.Interactive {
		p.Interactive = true
	}
	done := p.Reconcile(plan.Todo, plan.Skip)
	if p.Interactive {
		p.Pick()
	}
	return done
}
