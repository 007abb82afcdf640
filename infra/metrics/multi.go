package metrics

import coremetrics "github.com/milops/convoyd/core/metrics"

// MultiSink fans engine events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRecommendation forwards the event to all sinks, returning the
// first error encountered.
func (m *MultiSink) RecordRecommendation(ev coremetrics.RecommendationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRecommendation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvaluationLatency forwards latency observations.
func (m *MultiSink) RecordEvaluationLatency(lat coremetrics.EvaluationLatency) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.LatencyRecorder); ok {
			if err := rec.RecordEvaluationLatency(lat); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordQueueDepth forwards queue depth updates.
func (m *MultiSink) RecordQueueDepth(depth int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.QueueDepthRecorder); ok {
			if err := rec.RecordQueueDepth(depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCommanderDecision forwards commander decisions.
func (m *MultiSink) RecordCommanderDecision(ev coremetrics.CommanderEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.CommanderRecorder); ok {
			if err := rec.RecordCommanderDecision(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDegradedEvaluation forwards degraded evaluations.
func (m *MultiSink) RecordDegradedEvaluation(convoyID, step string) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DegradeRecorder); ok {
			if err := rec.RecordDegradedEvaluation(convoyID, step); err != nil {
				return err
			}
		}
	}
	return nil
}
