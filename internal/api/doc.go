// Package api exposes the HTTP interface of the atlas service: a chi router
// with request logging, recovery, metrics, CORS, rate limiting and bearer
// authentication in front of the service layer, plus a server-sent event
// stream for scrape progress.
package api
