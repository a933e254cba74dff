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

package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for pipeline runs.
type metricsPipeline struct {
	once sync.Once

	items         *prometheus.GaugeVec
	generated     *prometheus.CounterVec
	translated    *prometheus.CounterVec
	batchFailures *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.items = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "docsagent_pipeline_items", Help: "Items of the last run by document group"}, []string{"domain", "group"})
		m.generated = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsagent_pipeline_generated_total", Help: "English documents generated"}, []string{"domain"})
		m.translated = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsagent_pipeline_translated_total", Help: "Documents translated by target language"}, []string{"domain", "lang"})
		m.batchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsagent_pipeline_translate_batch_failures_total", Help: "Translation batches that failed and were skipped"}, []string{"domain", "lang"})

		buckets := []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800}
		m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "docsagent_pipeline_run_duration_seconds", Help: "Duration of pipeline runs", Buckets: buckets}, []string{"domain"})

		prometheus.MustRegister(m.items, m.generated, m.translated, m.batchFailures, m.runDuration)
	})
}

func recordItems(domain string, zh, enOnly, neither int) {
	pipeMetrics.init()
	pipeMetrics.items.WithLabelValues(domain, "has_zh").Set(float64(zh))
	pipeMetrics.items.WithLabelValues(domain, "has_en_only").Set(float64(enOnly))
	pipeMetrics.items.WithLabelValues(domain, "has_neither").Set(float64(neither))
}

func recordGenerated(domain string) {
	pipeMetrics.init()
	pipeMetrics.generated.WithLabelValues(domain).Inc()
}

func recordTranslated(domain, lang string, n int) {
	pipeMetrics.init()
	pipeMetrics.translated.WithLabelValues(domain, lang).Add(float64(n))
}

func recordBatchFailure(domain, lang string) {
	pipeMetrics.init()
	pipeMetrics.batchFailures.WithLabelValues(domain, lang).Inc()
}

func observeRun(domain string, d time.Duration) {
	pipeMetrics.init()
	pipeMetrics.runDuration.WithLabelValues(domain).Observe(d.Seconds())
}
