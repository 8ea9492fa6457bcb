package reshape

import "github.com/sirupsen/logrus"

// Option configures a read operation.
type Option func(*options)

type options struct {
	lli     bool
	logger  logrus.FieldLogger
	metrics *Metrics
	crx2rnx string
}

func newOptions(opts []Option) *options {
	o := &options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLLI adds the nullable loss of lock indicator column "lli" to observation tables.
// The indicator is reported as recorded in the file, a power failure epoch (flag 1) does not set it.
func WithLLI() Option {
	return func(o *options) { o.lli = true }
}

// WithLogger sets the logger for per-call summaries. Default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records calls, rows and durations in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCRX2RNX sets the program used to expand Hatanaka compressed observation files.
func WithCRX2RNX(tool string) Option {
	return func(o *options) { o.crx2rnx = tool }
}
