package perception

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "perception")
