// Package uapi provides Linux kernel UAPI definitions for membarrier(2)
package uapi

// membarrier(2) commands, from include/uapi/linux/membarrier.h.
// golang.org/x/sys/unix exports SYS_MEMBARRIER but not the command values.
const (
	MEMBARRIER_CMD_QUERY                                = 0
	MEMBARRIER_CMD_GLOBAL                               = 1 << 0
	MEMBARRIER_CMD_GLOBAL_EXPEDITED                     = 1 << 1
	MEMBARRIER_CMD_REGISTER_GLOBAL_EXPEDITED            = 1 << 2
	MEMBARRIER_CMD_PRIVATE_EXPEDITED                    = 1 << 3
	MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED           = 1 << 4
	MEMBARRIER_CMD_PRIVATE_EXPEDITED_SYNC_CORE          = 1 << 5
	MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED_SYNC_CORE = 1 << 6
	MEMBARRIER_CMD_PRIVATE_EXPEDITED_RSEQ               = 1 << 7
	MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED_RSEQ      = 1 << 8
	MEMBARRIER_CMD_GET_REGISTRATIONS                    = 1 << 9
)

// MEMBARRIER_CMD_SHARED is the pre-4.16 name of MEMBARRIER_CMD_GLOBAL.
const MEMBARRIER_CMD_SHARED = MEMBARRIER_CMD_GLOBAL

// PrivateExpeditedMask is the pair of commands the process-wide barrier needs:
// the barrier itself and the registration that must precede it.
const PrivateExpeditedMask = MEMBARRIER_CMD_PRIVATE_EXPEDITED | MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED

// Supports reports whether every bit of cmds is set in the mask returned by
// MEMBARRIER_CMD_QUERY.
func Supports(mask, cmds uintptr) bool {
	return cmds != 0 && mask&cmds == cmds
}

// CommandName returns the kernel name of a single membarrier command.
func CommandName(cmd uintptr) string {
	switch cmd {
	case MEMBARRIER_CMD_QUERY:
		return "MEMBARRIER_CMD_QUERY"
	case MEMBARRIER_CMD_GLOBAL:
		return "MEMBARRIER_CMD_GLOBAL"
	case MEMBARRIER_CMD_GLOBAL_EXPEDITED:
		return "MEMBARRIER_CMD_GLOBAL_EXPEDITED"
	case MEMBARRIER_CMD_REGISTER_GLOBAL_EXPEDITED:
		return "MEMBARRIER_CMD_REGISTER_GLOBAL_EXPEDITED"
	case MEMBARRIER_CMD_PRIVATE_EXPEDITED:
		return "MEMBARRIER_CMD_PRIVATE_EXPEDITED"
	case MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED:
		return "MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED"
	case MEMBARRIER_CMD_PRIVATE_EXPEDITED_SYNC_CORE:
		return "MEMBARRIER_CMD_PRIVATE_EXPEDITED_SYNC_CORE"
	case MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED_SYNC_CORE:
		return "MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED_SYNC_CORE"
	case MEMBARRIER_CMD_PRIVATE_EXPEDITED_RSEQ:
		return "MEMBARRIER_CMD_PRIVATE_EXPEDITED_RSEQ"
	case MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED_RSEQ:
		return "MEMBARRIER_CMD_REGISTER_PRIVATE_EXPEDITED_RSEQ"
	case MEMBARRIER_CMD_GET_REGISTRATIONS:
		return "MEMBARRIER_CMD_GET_REGISTRATIONS"
	default:
		return "MEMBARRIER_CMD_UNKNOWN"
	}
}
