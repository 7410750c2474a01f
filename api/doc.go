// Package api serves a read-only HTTP view of a device: its health, the
// state of the current match, the match ledger and the Prometheus metrics
// of the radio protocol.
//
//	GET /api/health
//	GET /api/match
//	GET /api/ledger
//	GET /api/ledger/{index}
//	GET /metrics
package api
