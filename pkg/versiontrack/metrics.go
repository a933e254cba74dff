// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package versiontrack

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsTracker holds Prometheus metrics for version tracking.
type metricsTracker struct {
	once sync.Once

	tagsScanned     prometheus.Counter
	extractFailures prometheus.Counter
	newRecords      prometheus.Counter
	cacheWrites     *prometheus.CounterVec

	scanDuration prometheus.Histogram
}

var trackMetrics metricsTracker

func (m *metricsTracker) init() {
	m.once.Do(func() {
		m.tagsScanned = prometheus.NewCounter(prometheus.CounterOpts{Name: "docsagent_versiontrack_tags_scanned_total", Help: "Release tags read during version tracking"})
		m.extractFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "docsagent_versiontrack_extract_failures_total", Help: "Per-tag reads or extractions that failed and were treated as empty"})
		m.newRecords = prometheus.NewCounter(prometheus.CounterOpts{Name: "docsagent_versiontrack_new_records_total", Help: "First-seen records added to the version cache"})
		m.cacheWrites = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsagent_versiontrack_cache_writes_total", Help: "Version cache writes by outcome"}, []string{"outcome"})

		buckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "docsagent_versiontrack_scan_duration_seconds", Help: "Duration of a tracking run", Buckets: buckets})

		prometheus.MustRegister(m.tagsScanned, m.extractFailures, m.newRecords, m.cacheWrites, m.scanDuration)
	})
}

func recordTagScanned() {
	trackMetrics.init()
	trackMetrics.tagsScanned.Inc()
}

func recordExtractFailure() {
	trackMetrics.init()
	trackMetrics.extractFailures.Inc()
}

func recordNewRecords(n int) {
	trackMetrics.init()
	trackMetrics.newRecords.Add(float64(n))
}

func recordCacheWrite(ok bool) {
	trackMetrics.init()
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	trackMetrics.cacheWrites.WithLabelValues(outcome).Inc()
}

func observeScan(d time.Duration) {
	trackMetrics.init()
	trackMetrics.scanDuration.Observe(d.Seconds())
}
