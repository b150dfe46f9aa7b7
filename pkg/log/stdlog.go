// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"log"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log/flags"
)

// AdaptStdlog redirects output from the system pkg "log" to this logger, for
// libraries such as u-root that log through it. Time flags on the std logger
// are cleared so entries don't carry two timestamps.
//
// Use nil for logger if the logger in question is the predefined "standard" one.
func AdaptStdlog(logger *log.Logger, level flags.Flag) {
	sa := &stdAdapter{level: level}
	if logger == nil {
		log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime | log.Lmicroseconds))
		log.SetOutput(sa)
	} else {
		logger.SetFlags(logger.Flags() &^ (log.Ldate | log.Ltime | log.Lmicroseconds))
		logger.SetOutput(sa)
	}
}

type stdAdapter struct {
	level flags.Flag
}

func (sa *stdAdapter) Write(b []byte) (int, error) {
	FlaggedLogf(sa.level, "%s", strings.TrimRight(string(b), "\n"))
	return len(b), nil
}
