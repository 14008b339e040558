// Package metrics exposes intern pool statistics as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RowanDark/gstr/intern"
)

// Collector samples a pool on every scrape.
type Collector struct {
	pool *intern.Pool

	entries   *prometheus.Desc
	bytes     *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	releases  *prometheus.Desc
	evictions *prometheus.Desc
}

// NewCollector returns a collector for pool. Metric names are prefixed with
// namespace (for example gstr_pool_entries).
func NewCollector(pool *intern.Pool, namespace string, constLabels prometheus.Labels) *Collector {
	labels := prometheus.Labels{}
	for k, v := range constLabels {
		labels[k] = v
	}
	labels["policy"] = pool.Policy().String()

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, nil, labels)
	}
	return &Collector{
		pool:      pool,
		entries:   desc("entries", "Number of distinct contents held by the pool."),
		bytes:     desc("bytes", "Total content bytes retained by the pool."),
		hits:      desc("hits_total", "Intern calls answered by an existing entry."),
		misses:    desc("misses_total", "Intern calls that created a new entry."),
		releases:  desc("releases_total", "Handle references released."),
		evictions: desc("evictions_total", "Entries removed after their last reference was released."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.bytes
	ch <- c.hits
	ch <- c.misses
	ch <- c.releases
	ch <- c.evictions
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Entries))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.releases, prometheus.CounterValue, float64(s.Releases))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
}

// WriteTextfile registers a collector for pool in a fresh registry and
// writes the metrics in the node_exporter textfile format.
func WriteTextfile(path string, pool *intern.Pool, namespace string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(pool, namespace, nil)); err != nil {
		return fmt.Errorf("registering pool collector: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
