package smail

import (
	"fmt"
	"strings"
)

// Constants

// Delimiters of the smail wire protocol.
const (
	FieldDelimiter  = "%%"
	RecordDelimiter = "##"
)

// Verbs of the smail wire protocol.
const (
	VerbRegister    = "REGISTER"
	VerbLogin       = "LOGIN"
	VerbLogout      = "LOGOUT"
	VerbSendEmail   = "SEND_EMAIL"
	VerbGetReceived = "GET_RECEIVED_EMAILS"
	VerbGetSent     = "GET_SENT_EMAILS"
	VerbReadEmail   = "READ_EMAIL"
	VerbSearch      = "SEARCH_DETAILS"
	VerbExit        = "EXIT"
)

// Variables

// VerbArity maps each supported verb to the exact number
// of fields it carries after the verb itself. A frame with
// any other field count is rejected before dispatch.
var VerbArity map[string]int

// Structs

// Request represents the parsed content of one client
// frame sent to a smail server. Fields holds the verb's
// payload fields in protocol order, already validated
// to match the verb's fixed arity.
type Request struct {
	Verb   string
	Fields []string
}

// Functions

func init() {

	// Set supported verbs and their fixed arities in
	// a map to have quick access.
	VerbArity = make(map[string]int)

	VerbArity[VerbRegister] = 3
	VerbArity[VerbLogin] = 2
	VerbArity[VerbLogout] = 1
	VerbArity[VerbSendEmail] = 3
	VerbArity[VerbGetReceived] = 0
	VerbArity[VerbGetSent] = 0
	VerbArity[VerbReadEmail] = 1
	VerbArity[VerbSearch] = 2
	VerbArity[VerbExit] = 0
}

// ParseRequest takes in a raw string representing one
// received frame and parses it into the defined request
// structure above. An unsupported verb or a field count
// not matching the verb's arity yields an error; such a
// frame never reaches any store.
func ParseRequest(raw string) (*Request, error) {

	parts := strings.Split(raw, FieldDelimiter)

	verb := parts[0]

	arity, supported := VerbArity[verb]
	if !supported {
		return nil, fmt.Errorf("received unsupported verb '%s'", verb)
	}

	if len(parts)-1 != arity {
		return nil, fmt.Errorf("verb %s expects %d fields, received %d", verb, arity, len(parts)-1)
	}

	return &Request{
		Verb:   verb,
		Fields: parts[1:],
	}, nil
}
