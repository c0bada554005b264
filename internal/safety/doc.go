// Package safety produces the alert payloads served by the service.
//
// Generator emits synthetic alerts and a risk prediction for the polling endpoint and the per-listener push loop.
// Analyzer applies fixed heuristic rules to a submitted waste-log record. Both draw from an injected, seedable Random.
package safety
