// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package log

import "fmt"

// Genf logs at Info level with the generation number prefixed onto the
// message, so a driver loop's per-generation log lines sort and grep
// the same way regardless of which level they were logged at.
func Genf(generation uint64, format string, v ...interface{}) {
	Infof("gen %d: %s", generation, fmt.Sprintf(format, v...))
}

// GenWarnf is Genf's Warn-level counterpart, for per-generation
// conditions worth flagging but not fatal (e.g. a dropped journal
// write, a publish failure).
func GenWarnf(generation uint64, format string, v ...interface{}) {
	Warnf("gen %d: %s", generation, fmt.Sprintf(format, v...))
}
