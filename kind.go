package membarrier

import "fmt"

// Kind is the strength of one barrier invocation.
type Kind uint8

const (
	// KindLight is the fast path barrier issued by Light: compiler ordering only.
	KindLight Kind = iota

	// KindNormal is the sequentially consistent fence issued by Normal.
	KindNormal

	// KindHeavy is the process-wide slow path barrier issued by Heavy.
	KindHeavy
)

func (k Kind) String() string {
	switch k {
	case KindLight:
		return "light"
	case KindNormal:
		return "normal"
	case KindHeavy:
		return "heavy"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Kinds lists every barrier kind from weakest to strongest.
func Kinds() []Kind {
	return []Kind{KindLight, KindNormal, KindHeavy}
}

// Transfers reports whether barrier x on one thread, ordered before barrier y
// on another thread, makes every write visible to the first thread at x
// visible to the second thread after y. That holds when either side is heavy
// or both sides are normal. A light barrier contributes nothing on its own,
// so light/light and light/normal never transfer.
//
// The relation is symmetric; the total order only decides which thread
// publishes and which observes.
func Transfers(x, y Kind) bool {
	if x == KindHeavy || y == KindHeavy {
		return true
	}
	return x == KindNormal && y == KindNormal
}
