/*
Package observability provides tools for monitoring the sinew evaluation engine.

It includes Prometheus metrics fed by lifecycle hooks, structured logging of
passes and state changes, and a helper to combine several hook sets into one.
*/
package observability
