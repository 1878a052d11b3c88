package server

import (
	"time"

	"http-conn/application/http"
)

type Options struct {
	Serve ServeOptions
}

type ServeOptions struct {
	Encode http.EncodeOptions
	Decode http.DecodeOptions

	Timeout TimeoutOptions

	// ReplyOnError makes the server answer a request it failed to parse with
	// an error status before closing. Otherwise the connection is just closed.
	ReplyOnError bool
}

// Zero durations disable the corresponding deadline.
type TimeoutOptions struct {
	// ReadTimeout bounds reading the request line and header block.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration
}

var DefaultOptions = Options{
	Serve: ServeOptions{
		Encode: http.DefaultEncodeOptions,
		Decode: http.DefaultDecodeOptions,
		Timeout: TimeoutOptions{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	},
}
