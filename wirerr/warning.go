package wirerr

import (
	"io"
	"os"
)

// Warnings is where non-fatal oddities are sent, such as an io.Writer that
// reports a short write with no error. The runtime recovers from these, but
// they usually indicate a misbehaving collaborator worth knowing about.
var Warnings io.Writer = os.Stderr
