package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"
)

// Structs

// Connection carries all information specific to one
// observed client connection on its way through a smail
// node: the transport, the opaque connection ID issued
// at accept time, and the session state reached so far.
type Connection struct {
	IncConn         net.Conn
	IncReader       *bufio.Reader
	ClientID        string
	ClientAddr      string
	IsAuthenticated bool
	UserName        string
	Terminated      bool
}

// Functions

// Send takes in a response line as a string and writes
// it to the connection to the client. In case an error
// occurs, this method returns it to the calling function.
func (c *Connection) Send(text string) error {

	_, err := fmt.Fprintf(c.IncConn, "%s\n", text)
	if err != nil {
		return err
	}

	return nil
}

// Receive wraps the main io.Reader function that awaits
// text until a newline symbol and deletes the line ending
// afterwards again. It returns the resulting string or
// an error.
func (c *Connection) Receive() (string, error) {

	text, err := c.IncReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(text, "\r\n"), nil
}
