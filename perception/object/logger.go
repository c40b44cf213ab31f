package object

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "object")
