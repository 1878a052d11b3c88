// Package http implements the wire format of a single HTTP/1.1 exchange:
// decoding a request line and header block, and encoding a status line,
// header block and body.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
