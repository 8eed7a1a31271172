/*
Copyright 2025 The VoltFleet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging defines the verbosity levels used across the fleet core and
// builds the zap-backed loggers installed as the controller-runtime root
// logger. Components log through ctrllog.FromContext or ctrllog.Log.
package logging

import (
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Verbosity levels for logger.V(...).
const (
	// DEBUG is per-asset and per-command detail.
	DEBUG = 1
	// TRACE is per-draw detail from the telemetry source.
	TRACE = 2
)

// NewLogger builds a zap-backed logr.Logger. Development mode uses the
// console encoder; otherwise JSON is emitted. verbosity enables logr V-levels
// up to and including the given value.
func NewLogger(development bool, verbosity int) logr.Logger {
	if verbosity < 0 {
		verbosity = 0
	}
	// V(n) maps to zap level -n.
	return zap.New(
		zap.UseDevMode(development),
		zap.Level(zapcore.Level(-verbosity)),
	)
}

// NewTestLogger installs a development logger at TRACE verbosity as the
// root logger and returns it. Intended for test suites.
func NewTestLogger() logr.Logger {
	l := zap.New(
		zap.UseDevMode(true),
		zap.WriteTo(os.Stderr),
		zap.Level(zapcore.Level(-TRACE)),
	)
	ctrllog.SetLogger(l)
	return l
}
