// Package metrics records request outcomes as Prometheus metrics.
//
// A Collector satisfies http.Observer, so it can be handed to a client with
// http.WithObserver:
//
//	collector := metrics.NewCollector("myapp")
//	client := http.New("v1", http.WithObserver(collector))
//
// The collected series can be served with Handler or dumped in the text
// exposition format with WriteText.
package metrics
