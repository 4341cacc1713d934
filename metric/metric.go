package metric

import (
	"github.com/hermeznetwork/hermez-priorityop/log"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespacePriorityOps = "priorityops"
)

var (
	// PriorityOpsDecoded count of priority request logs decoded, by op
	// type
	PriorityOpsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespacePriorityOps,
			Name:      "decoded",
			Help:      "",
		}, []string{"type"})

	// PriorityOpsFailed count of priority request logs that failed to
	// decode, by reason
	PriorityOpsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespacePriorityOps,
			Name:      "failed",
			Help:      "",
		}, []string{"reason"})

	// PriorityOpDecodeDuration time spent decoding a single log, in
	// seconds
	PriorityOpDecodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespacePriorityOps,
			Name:      "decode_duration_seconds",
			Help:      "",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10), //nolint:gomnd
		})
)

func init() {
	if err := registerCollectors(); err != nil {
		log.Error(err)
	}
}

func registerCollectors() error {
	if err := registerCollector(PriorityOpsDecoded); err != nil {
		return err
	}
	if err := registerCollector(PriorityOpsFailed); err != nil {
		return err
	}
	return registerCollector(PriorityOpDecodeDuration)
}

func registerCollector(collector prometheus.Collector) error {
	err := prometheus.Register(collector)
	if err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}
