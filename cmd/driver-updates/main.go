// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Command driver-updates finds driver disks and loads the drivers on them
// before the installer starts. It runs from the initramfs; whatever happens,
// it exits 0 so that the boot continues.
//
// With no arguments, devices labeled OEMDRV and devices named by the dd boot
// argument are examined. An argument names a directory of network-provided
// drivers, which is processed instead.
package main

import (
	"fmt"
	stdlog "log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bluemutedwisdom/anaconda/pkg/config"
	"github.com/bluemutedwisdom/anaconda/pkg/driverdisk"
	"github.com/bluemutedwisdom/anaconda/pkg/hw/kmsg"
	"github.com/bluemutedwisdom/anaconda/pkg/log"
	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
)

//in any binary with main.buildId string, it is set at compile time to $BUILD_INFO
var buildId string

type options struct {
	cfgFile     string
	interactive bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "driver-updates [netdir]",
		Short: "Load drivers from driver disks",
		Long: `Examine driver disks and load the kernel modules and firmware they carry.

Devices labeled OEMDRV and devices named by the inst.dd boot argument are
processed automatically. A bare inst.dd argument, or --interactive, lets the
operator choose devices and packages afterwards.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			var netDir string
			if len(args) > 0 {
				netDir = args[0]
			}
			run(cfg, netDir)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", config.DefaultPath, "config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show technical messages on the console")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "always ask which devices and packages to use")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newDefaultsCmd())
	return cmd
}

// loadConfig reads the config file, applies flags that were given, and sets
// up logging accordingly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Configuration, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("interactive") {
		cfg.Behavior.Interactive = opts.interactive
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Behavior.Verbose = opts.verbose
	}
	if cfg.System.InstallerVersion == "" {
		cfg.System.InstallerVersion = buildId
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Configuration) {
	log.SetPrefix("driver-updates")
	if cfg.Behavior.Verbose {
		log.AddConsoleLog(flags.NA)
	} else {
		log.AddConsoleLog(flags.EndUser)
	}
	if cfg.Paths.LogFile != "" {
		if _, err := log.AddNamedFileLog(cfg.Paths.LogFile); err != nil {
			log.Logf("file log %s: %s", cfg.Paths.LogFile, err)
		}
	}
	if cfg.Paths.Kmsg != "" {
		if err := kmsg.AddKmsgLog(cfg.Paths.Kmsg, "driver-updates", flags.EndUser); err != nil {
			log.Logf("kernel log %s: %s", cfg.Paths.Kmsg, err)
		}
	}
	//earlier entries were replayed into the sinks above
	log.FlushMemLog()
	log.AdaptStdlog(stdlog.Default(), flags.NA)
	log.Logf("buildId: %s", buildId)
}

func run(cfg *config.Configuration, netDir string) {
	p := driverdisk.New(cfg, os.Stdin, os.Stdout)
	plan := p.NewPlan(driverdisk.PlanOptions{
		NetDir:        netDir,
		NetDrivers:    cfg.Paths.NetDrivers,
		Args:          cfg.Paths.Args,
		KickstartArgs: cfg.Paths.KickstartArgs,
		NetProtocols:  cfg.Discovery.NetProtocols,
	})
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if plan.Interactive || p.Interactive {
			log.Msgf("stdin is not a terminal, not prompting")
		}
		plan.Interactive = false
		p.Interactive = false
		p.Unattended = true
	}
	done := p.Execute(plan)
	log.Logf("processed %d device(s) automatically: %v", done.Len(), done.Sorted())
}

func main() {
	log.DefaultLogStack()
	if err := newRootCmd().Execute(); err != nil {
		log.Msgf("driver-updates: %s", err)
		fmt.Fprintln(os.Stderr, err)
	}
	log.Finalize()
}
