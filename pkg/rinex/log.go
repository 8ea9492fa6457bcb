package rinex

import "github.com/sirupsen/logrus"

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger sets the logger used by the decoders for recoverable oddities
// like unhandled header labels. A nil logger resets to the logrus standard logger.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		logger = logrus.StandardLogger()
		return
	}
	logger = l
}
