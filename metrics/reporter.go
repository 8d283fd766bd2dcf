package metrics

import (
	"time"

	"github.com/RuiFG/streaming/log"
	"github.com/uber-go/tally/v4"
)

// logReporter writes every reported metric as a structured log line.
type logReporter struct {
	logger log.Logger
}

func NewLogReporter(logger log.Logger) tally.StatsReporter {
	return &logReporter{logger: logger}
}

func (r *logReporter) Reporting() bool {
	return true
}

func (r *logReporter) Tagging() bool {
	return true
}

func (r *logReporter) Capabilities() tally.Capabilities {
	return r
}

func (r *logReporter) Flush() {}

func (r *logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.logger.Infow("counter", "name", name, "tags", tags, "value", value)
}

func (r *logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.logger.Infow("gauge", "name", name, "tags", tags, "value", value)
}

func (r *logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.logger.Infow("timer", "name", name, "tags", tags, "value", interval)
}

func (r *logReporter) ReportHistogramValueSamples(name string, tags map[string]string, _ tally.Buckets,
	bucketLowerBound, bucketUpperBound float64, samples int64) {
	r.logger.Infow("histogram", "name", name, "tags", tags,
		"lower", bucketLowerBound, "upper", bucketUpperBound, "samples", samples)
}

func (r *logReporter) ReportHistogramDurationSamples(name string, tags map[string]string, _ tally.Buckets,
	bucketLowerBound, bucketUpperBound time.Duration, samples int64) {
	r.logger.Infow("histogram", "name", name, "tags", tags,
		"lower", bucketLowerBound, "upper", bucketUpperBound, "samples", samples)
}
