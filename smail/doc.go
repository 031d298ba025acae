/*
Package smail implements the wire protocol spoken between a smail
client and server: newline-delimited text frames whose fields are
joined with '%%' and whose multi-record responses are joined with
'##'. It provides request parsing with per-verb arity validation,
the response status tokens, and message record serialization.
*/
package smail
