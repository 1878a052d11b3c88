// Package rule holds the octets that delimit HTTP/1.1 messages on the wire.
package rule

const (
	CR byte = '\r'
	LF byte = '\n'
	SP byte = ' '

	Colon byte = ':'

	// Request target delimiters.
	QueryMark   byte = '?'
	PairSep     byte = '&'
	KeyValueSep byte = '='
)

var CRLF = []byte{CR, LF}
