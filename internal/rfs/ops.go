package rfs

import "strconv"

// Op is an operation code identifying a request. Values are fixed by the
// protocol and must not be reordered.
type Op uint32

// Supported operations.
const (
	OpOpen          Op = 0
	OpRead          Op = 1
	OpWrite         Op = 2
	OpClose         Op = 3
	OpLseek         Op = 4
	OpStat          Op = 5
	OpUnlink        Op = 6
	OpGetdirentries Op = 7
	OpGetdirtree    Op = 8
)

var opNames = [...]string{
	OpOpen:          "open",
	OpRead:          "read",
	OpWrite:         "write",
	OpClose:         "close",
	OpLseek:         "lseek",
	OpStat:          "stat",
	OpUnlink:        "unlink",
	OpGetdirentries: "getdirentries",
	OpGetdirtree:    "getdirtree",
}

// Valid reports whether o is a known operation.
func (o Op) Valid() bool { return int(o) < len(opNames) }

// String implements fmt.Stringer.
func (o Op) String() string {
	if o.Valid() {
		return opNames[o]
	}
	return "op(" + strconv.FormatUint(uint64(o), 10) + ")"
}
