// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverdisk

import (
	"os"
	fp "path/filepath"
	"reflect"
	"testing"

	"github.com/bluemutedwisdom/anaconda/pkg/log/testlog"
)

//func (ds DeviceSet) Difference(other DeviceSet) DeviceSet
func TestDeviceSet(t *testing.T) {
	a := NewDeviceSet("/dev/sdb", "/dev/sdc", "/dev/sdd")
	skip := NewDeviceSet("/dev/sdc", "/dev/sdx")
	diff := a.Difference(skip)
	if !reflect.DeepEqual(diff.Sorted(), []string{"/dev/sdb", "/dev/sdd"}) {
		t.Errorf("got %v", diff.Sorted())
	}
	for id := range skip {
		if diff.Has(id) {
			t.Errorf("%s survived", id)
		}
	}
	if a.Len() != 3 {
		t.Errorf("receiver modified")
	}
	if got := a.Pop(); got != "/dev/sdb" || a.Len() != 2 || a.Has("/dev/sdb") {
		t.Errorf("pop %s, left %v", got, a.Sorted())
	}
}

//func DeviceID(path string) string
func TestDeviceID(t *testing.T) {
	tmp, err := fp.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dev := fp.Join(tmp, "sdb1")
	if err = os.WriteFile(dev, nil, 0644); err != nil {
		t.Fatal(err)
	}
	link := fp.Join(tmp, "by-label", "OEMDRV")
	if err = os.MkdirAll(fp.Dir(link), 0755); err != nil {
		t.Fatal(err)
	}
	if err = os.Symlink("../sdb1", link); err != nil {
		t.Fatal(err)
	}
	if got := DeviceID(link); got != dev {
		t.Errorf("got %s want %s", got, dev)
	}
	if got := DeviceID("/dev/nonexistent//x"); got != "/dev/nonexistent/x" {
		t.Errorf("got %s", got)
	}
}

//func (p *Processor) Reconcile(todo, skip DeviceSet) (done DeviceSet)
func TestReconcileNewDevices(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	w := newWorld(t)
	w.content["/dev/sdb"] = w.driverDisk("sdb", false, "kmod-hba")
	w.content["/dev/sdc"] = w.driverDisk("sdc", false, "kmod-nic")
	w.content["/dev/sdd"] = w.emptyMedia("sdd")
	w.content["/dev/sde"] = w.driverDisk("sde", false, "kmod-never")
	//loading the hba driver exposes sdc, whose driver exposes sdd; sdb and
	//the skipped sde stay labeled throughout
	w.labeled = NewDeviceSet("/dev/sdb", "/dev/sde")
	w.reveals["/dev/sdb"] = []string{"/dev/sdc"}
	w.reveals["/dev/sdc"] = []string{"/dev/sdd", "/dev/sdb"}
	p := w.processor("", false)

	done := p.Reconcile(NewDeviceSet("/dev/sdb", "/dev/sde"), NewDeviceSet("/dev/sde"))
	if want := []string{"/dev/sdb", "/dev/sdc", "/dev/sdd"}; !reflect.DeepEqual(done.Sorted(), want) {
		t.Errorf("done %v", done.Sorted())
	}
	if want := []string{"/dev/sdb", "/dev/sdc", "/dev/sdd"}; !reflect.DeepEqual(w.mounts, want) {
		t.Errorf("mounts %v", w.mounts)
	}
	if !reflect.DeepEqual(w.extracts, []string{"kmod-hba", "kmod-nic"}) {
		t.Errorf("extracted %v", w.extracts)
	}
	if w.scans != 3 {
		t.Errorf("want a scan per device, got %d", w.scans)
	}
	if _, err := os.Lstat(p.DeviceMount); !os.IsNotExist(err) {
		t.Errorf("device left mounted")
	}
}

// however devices appear, each is processed at most once
func TestReconcileBounded(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	w := newWorld(t)
	universe := []string{"/dev/sda", "/dev/sdb", "/dev/sdc", "/dev/sdd", "/dev/sde", "/dev/sdf"}
	for i, d := range universe {
		w.content[d] = w.emptyMedia(fp.Base(d))
		//every device reveals all devices, including already processed ones
		w.reveals[d] = universe
		if i%2 == 1 {
			w.failing[d] = 1
		}
	}
	p := w.processor("", false)
	done := p.Reconcile(NewDeviceSet("/dev/sda"), NewDeviceSet())
	if done.Len() != len(universe) {
		t.Errorf("done %v", done.Sorted())
	}
	//failed mounts count as attempts; nothing is tried twice
	attempts := len(w.mounts)
	for d, n := range w.failing {
		if n == 0 {
			attempts++
		} else {
			t.Errorf("%s never attempted", d)
		}
	}
	if attempts > len(universe) || w.scans > len(universe) {
		t.Errorf("%d attempts, %d scans for %d devices", attempts, w.scans, len(universe))
	}
	for _, d := range universe {
		if w.count(d) > 1 {
			t.Errorf("%s mounted %d times", d, w.count(d))
		}
	}
}

func TestReconcileSkip(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	w := newWorld(t)
	for _, d := range []string{"/dev/sdb", "/dev/sdc", "/dev/sdd"} {
		w.content[d] = w.emptyMedia(fp.Base(d))
	}
	w.labeled = NewDeviceSet("/dev/sdb", "/dev/sdc", "/dev/sdd")
	p := w.processor("", false)
	todo := NewDeviceSet("/dev/sdb", "/dev/sdc")
	done := p.Reconcile(todo, NewDeviceSet("/dev/sdc"))
	if want := []string{"/dev/sdb", "/dev/sdd"}; !reflect.DeepEqual(done.Sorted(), want) {
		t.Errorf("done %v", done.Sorted())
	}
	if w.count("/dev/sdc") != 0 {
		t.Errorf("skipped device mounted")
	}
	if todo.Len() != 2 {
		t.Errorf("caller's todo modified")
	}
}

func TestReconcileImageFallback(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	w := newWorld(t)
	usb := w.emptyMedia("usb")
	ddImg := w.addImage(usb, "dd.iso", w.driverDisk("dd-iso", false, "kmod-iso"), true)
	if err := os.MkdirAll(fp.Join(usb, "other"), 0755); err != nil {
		t.Fatal(err)
	}
	otherImg := w.addImage(usb, "other/install.iso", w.emptyMedia("install-iso"), false)
	w.content["/dev/sdb"] = usb
	p := w.processor("", false)
	p.Reconcile(NewDeviceSet("/dev/sdb"), NewDeviceSet())
	if w.count(ddImg) != 1 || w.count(otherImg) != 0 {
		t.Errorf("mounts %v", w.mounts)
	}
	if !reflect.DeepEqual(w.extracts, []string{"kmod-iso"}) {
		t.Errorf("extracted %v", w.extracts)
	}
}

//func (p *Processor) NewPlan(o PlanOptions) Plan
func TestNewPlan(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	w := newWorld(t)
	w.labeled = NewDeviceSet("/dev/sdb")
	args := fp.Join(w.tmp, "dd_args")
	ks := fp.Join(w.tmp, "dd_args_ks")
	if err := os.WriteFile(args, []byte("hd:sdx sdy http://example.com/dd.iso\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ks, []byte("sdy\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p := w.processor("", false)
	o := PlanOptions{
		NetDrivers:    fp.Join(w.tmp, "dd_net"),
		Args:          args,
		KickstartArgs: ks,
		NetProtocols:  []string{"http"},
	}
	plan := p.NewPlan(o)
	if plan.NetDir != "" || plan.Interactive {
		t.Errorf("plan %#v", plan)
	}
	if want := []string{"/dev/sdb", "/dev/sdx", "/dev/sdy"}; !reflect.DeepEqual(plan.Todo.Sorted(), want) {
		t.Errorf("todo %v", plan.Todo.Sorted())
	}
	if want := []string{"/dev/sdy"}; !reflect.DeepEqual(plan.Skip.Sorted(), want) {
		t.Errorf("skip %v", plan.Skip.Sorted())
	}

	if err := os.WriteFile(args, []byte("inst.dd\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if plan = p.NewPlan(o); !plan.Interactive {
		t.Errorf("bare inst.dd not interactive")
	}

	if err := os.Mkdir(o.NetDrivers, 0755); err != nil {
		t.Fatal(err)
	}
	plan = p.NewPlan(o)
	if plan.NetDir != o.NetDrivers || plan.Todo.Len() != 0 {
		t.Errorf("network plan %#v", plan)
	}
	o.NetDir = "/explicit"
	if plan = p.NewPlan(o); plan.NetDir != "/explicit" {
		t.Errorf("network plan %#v", plan)
	}
}

//func (p *Processor) Execute(plan Plan) DeviceSet
func TestExecute(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	w := newWorld(t)
	w.content["/dev/sdb"] = w.driverDisk("sdb", false, "kmod-foo")
	p := w.processor("", false)
	done := p.Execute(Plan{Todo: NewDeviceSet("/dev/sdb"), Skip: NewDeviceSet()})
	if done.Len() != 1 || w.devLists != 0 {
		t.Errorf("done %v, picker ran %d times", done.Sorted(), w.devLists)
	}

	//interactive: after the automatic pass, the picker runs until declined
	w = newWorld(t)
	w.content["/dev/sdb"] = w.driverDisk("sdb", false, "kmod-foo")
	p = w.processor("1\nc\nc\n", false)
	p.Execute(Plan{Todo: NewDeviceSet("/dev/sdb"), Skip: NewDeviceSet(), Interactive: true})
	if w.devLists != 1 || !p.Interactive {
		t.Errorf("picker ran %d times", w.devLists)
	}
	//package menu: toggle 1, continue
	if !reflect.DeepEqual(w.extracts, []string{"kmod-foo"}) {
		t.Errorf("extracted %v", w.extracts)
	}
}
