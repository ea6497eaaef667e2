package imgread

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetLogger replaces the logger new Readers write to. Passing nil restores
// the default, which logs warnings and errors to stderr. It is not safe to
// call concurrently with NewReader.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = newDefaultLogger()
	}
	logger = l
}
