package metrics

import (
	coremetrics "github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/infra/logger"
)

// NewSink assembles the configured sinks. No enabled sink yields a NopSink;
// several are wrapped in a MultiSink.
func NewSink(cfg coremetrics.Config, log logger.Logger) (coremetrics.Sink, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	var sinks []coremetrics.Sink
	if cfg.PrometheusEnabled {
		prom, err := NewPromSink(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, prom)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		log.Warnf("no metrics sink enabled, recording is a no-op")
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
