package types

import "github.com/m-mizutani/goerr/v2"

// Error tags categorize failures so that callers can collapse them into
// per-source error strings without losing the failure class.
var (
	// ErrTagTransport marks network level failures reaching the hosting API.
	ErrTagTransport = goerr.NewTag("transport")

	// ErrTagAPI marks non-2xx responses from the hosting API.
	ErrTagAPI = goerr.NewTag("api")

	// ErrTagRateLimit marks responses where the API explicitly signals
	// rate limiting. A subset of API errors, tagged separately because the
	// scheduler backs off differently on them.
	ErrTagRateLimit = goerr.NewTag("rate_limit")

	// ErrTagParse marks malformed repository URLs or item text that the
	// classifier could not process.
	ErrTagParse = goerr.NewTag("parse")

	// ErrTagConfig marks invalid or missing configuration.
	ErrTagConfig = goerr.NewTag("config")
)
