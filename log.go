package sphinx

import "github.com/op/go-logging"

var log = logging.MustGetLogger("sphinx")
