// Package metrics is the ambient observability surface §7's error-handling
// design calls for without naming a concrete backend ("emit a metric" on
// CapacityExhausted). Grounded on oomph-ac-oomph's example server, which
// wires github.com/go-echarts/statsview's runtime dashboard behind an
// opt-in debug flag rather than building a custom metrics exporter.
package metrics

import (
	"sync/atomic"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Counters are the handful of event counts the error-handling design
// names explicitly: capacity degradation and generation failures,
// neither of which is an error the connection driver can usefully log
// per-occurrence without risking log-flooding under sustained pressure.
type Counters struct {
	CapacityExhausted atomic.Int64
	GenerationFailed  atomic.Int64
	ChunksServed      atomic.Int64
	ConnectionsTotal  atomic.Int64
}

var Global Counters

// StartViewer starts the statsview runtime dashboard on addr, for manual
// inspection during development; it is never started unless a deployment
// opts in (§1 excludes a CLI/metrics surface from the core, but carrying
// the teacher's observability dependency is still expected of the
// ambient stack). Returns immediately; the dashboard runs until process
// exit.
func StartViewer(addr string) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
}
