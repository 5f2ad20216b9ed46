/*
Package observability provides tools for monitoring the blocks designer.

It turns session lifecycle hooks into Prometheus metrics and structured log
lines, and fans mutation events out to live subscribers such as the SSE
endpoint.
*/
package observability
