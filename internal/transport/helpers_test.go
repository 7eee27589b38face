package transport

import (
	"io"

	"github.com/nexmda/groupcore/framework/log"
)

func testLogger() log.Logger {
	return log.Logger{Out: log.WriterOutput(io.Discard, false)}
}
