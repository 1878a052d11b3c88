// Package status names the common status codes.
package status

import "http-conn/application/http"

// Informational 1XX
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.2
var (
	Continue           = add(http.StatusCode{Code: 100, ReasonPhrase: "Continue"})
	SwitchingProtocols = add(http.StatusCode{Code: 101, ReasonPhrase: "Switching Protocols"})
)

// Successful 2XX
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.3
var (
	OK        = add(http.StatusCode{Code: 200, ReasonPhrase: "OK"})
	Created   = add(http.StatusCode{Code: 201, ReasonPhrase: "Created"})
	Accepted  = add(http.StatusCode{Code: 202, ReasonPhrase: "Accepted"})
	NoContent = add(http.StatusCode{Code: 204, ReasonPhrase: "No Content"})
)

// Redirection 3xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
var (
	MovedPermanently  = add(http.StatusCode{Code: 301, ReasonPhrase: "Moved Permanently"})
	Found             = add(http.StatusCode{Code: 302, ReasonPhrase: "Found"})
	SeeOther          = add(http.StatusCode{Code: 303, ReasonPhrase: "See Other"})
	NotModified       = add(http.StatusCode{Code: 304, ReasonPhrase: "Not Modified"})
	TemporaryRedirect = add(http.StatusCode{Code: 307, ReasonPhrase: "Temporary Redirect"})
	PermanentRedirect = add(http.StatusCode{Code: 308, ReasonPhrase: "Permanent Redirect"})
)

// Client Error 4xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.5
var (
	BadRequest                  = add(http.StatusCode{Code: 400, ReasonPhrase: "Bad Request"})
	Unauthorized                = add(http.StatusCode{Code: 401, ReasonPhrase: "Unauthorized"})
	Forbidden                   = add(http.StatusCode{Code: 403, ReasonPhrase: "Forbidden"})
	NotFound                    = add(http.StatusCode{Code: 404, ReasonPhrase: "Not Found"})
	MethodNotAllowed            = add(http.StatusCode{Code: 405, ReasonPhrase: "Method Not Allowed"})
	RequestTimeout              = add(http.StatusCode{Code: 408, ReasonPhrase: "Request Timeout"})
	ContentTooLarge             = add(http.StatusCode{Code: 413, ReasonPhrase: "Content Too Large"})
	URITooLong                  = add(http.StatusCode{Code: 414, ReasonPhrase: "URI Too Long"})
	RequestHeaderFieldsTooLarge = add(http.StatusCode{Code: 431, ReasonPhrase: "Request Header Fields Too Large"})
)

// Server Error 5xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.6
var (
	InternalServerError     = add(http.StatusCode{Code: 500, ReasonPhrase: "Internal Server Error"})
	NotImplemented          = add(http.StatusCode{Code: 501, ReasonPhrase: "Not Implemented"})
	ServiceUnavailable      = add(http.StatusCode{Code: 503, ReasonPhrase: "Service Unavailable"})
	HTTPVersionNotSupported = add(http.StatusCode{Code: 505, ReasonPhrase: "HTTP Version Not Supported"})
)

var sm = make(map[uint]http.StatusCode)

func add(status http.StatusCode) http.StatusCode {
	sm[status.Code] = status
	return status
}

// FromCode looks up a known status. Unknown codes come back with an empty reason phrase.
func FromCode(code uint) (status http.StatusCode, ok bool) {
	s, ok := sm[code]
	if !ok {
		return http.StatusCode{Code: code, ReasonPhrase: ""}, false
	}

	return s, true
}
