// Package prom adapts the store's metrics hook to Prometheus.
//
//	collector, err := prom.NewCollector()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dir, err := vecsim.Open(ctx, path, vecsim.WithMetricsCollector(collector))
package prom
