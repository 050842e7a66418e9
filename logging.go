package gocrdt

import "go.uber.org/zap"

// Logger is the package-level structured logger. It defaults to a no-op
// logger so that embedding applications never see log output unless they
// opt in by replacing it:
//
//	gocrdt.Logger = zap.Must(zap.NewDevelopment())
//
// The core only logs at Debug level, and only at trust boundaries: remote
// op rejection (duplicate/premature counters) and remote Json ops that
// are dropped (unresolvable path, type mismatch). It never logs inside a
// merge's hot path.
var Logger = zap.NewNop()
