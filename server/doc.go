/*
Package server implements the connection-facing side of a smail node:
the accept loop, the per-connection session state machine sequencing
unauthenticated, authenticated, and terminated, and the Service
carrying one handler per protocol verb. Logging and metrics wrap the
Service as middlewares, so the transport always dispatches through
the decorated chain.
*/
package server
