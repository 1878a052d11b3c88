package transport

type Protocol string

const (
	TCP  Protocol = "tcp"
	Pipe Protocol = "pipe"
)

type Addr interface {
	Protocol() Protocol
	Identifier() any // Extra identifier (e.g. port, name)
	String() string
}
