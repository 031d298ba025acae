/*
Package store holds the shared, volatile state of a smail node: the
registered accounts, the live session bindings, and all messages ever
sent. Every connection goroutine operates on the same store instances,
so each store synchronizes internally and exposes operations that are
atomic with respect to the invariant they guard (unique usernames, one
live session per account, dual visibility of a sent message).
*/
package store
