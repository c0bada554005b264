// Package domain defines the core domain types and interfaces.
//
// Alert, prediction and waste-log types live in alert.go, the fan-out contract in fanout.go.
// No implementation code - just contracts shared by the safety, broadcast and httpserver packages.
package domain
