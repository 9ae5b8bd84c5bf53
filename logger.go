// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type loggerHolder struct {
	l logrus.FieldLogger
}

var pkgLogger atomic.Pointer[loggerHolder]

func init() {
	pkgLogger.Store(&loggerHolder{l: logrus.StandardLogger()})
}

// SetLogger replaces the logger used by the package. Passing nil restores
// the logrus standard logger.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	pkgLogger.Store(&loggerHolder{l: l})
}

// Logger returns the logger used by the package.
func Logger() logrus.FieldLogger {
	return pkgLogger.Load().l
}

func logger() *logrus.Entry {
	return Logger().WithField("component", "dashcalc")
}
