/*
Package observability provides tools for monitoring the femto engine.

It exposes Prometheus collectors for compilations and lifecycle hooks that
feed them and the structured logger.
*/
package observability
