package rivet

// Lifetime governs instance reuse for a binding.
type Lifetime int

const (
	// Singleton yields one instance per owning container.
	Singleton Lifetime = iota
	// Transient yields a fresh instance on every resolve.
	Transient
	// PerRequest yields one instance per top-level resolve call tree.
	PerRequest
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case PerRequest:
		return "per-request"
	default:
		return "unknown"
	}
}
