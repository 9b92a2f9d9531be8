/*
Package frame defines the typed protocol messages exchanged between chat clients
and the server, together with their binary wire encoding.

This file declares the frame types. A client frame carries a one-byte
correlation ID chosen by the client plus a tagged payload; server frames form a
tagged union of acknowledgements, relayed messages, and presence notices.
*/
package frame

// Wire discriminants for client payloads. These values are part of the
// protocol and must never be renumbered.
const (
	tagLogin  byte = 0
	tagMsg    byte = 1
	tagLogout byte = 2
)

// Wire discriminants for server frames. Same deal: pinned, never renumbered.
const (
	tagOkay      byte = 0
	tagErr       byte = 1
	tagBroadcast byte = 2
	tagPresent   byte = 3
	tagLoggedIn  byte = 4
	tagLoggedOut byte = 5
)

// Client represents one client-to-server protocol message.
type Client struct {
	// ID is a client-chosen correlation tag, echoed back in the matching
	// Okay or Err acknowledgement.
	ID byte

	// Payload is the request carried by this frame. It must be one of
	// Login, Msg, or Logout.
	Payload ClientPayload
}

// ClientPayload is the tagged union of client request kinds.
type ClientPayload interface {
	clientTag() byte
}

// Login asks the server to register the given handle for this connection.
type Login struct {
	Handle string
}

// Msg submits a chat message to be relayed to every other logged-in user.
type Msg struct {
	Text string
}

// Logout releases the handle registered on this connection.
type Logout struct{}

func (Login) clientTag() byte  { return tagLogin }
func (Msg) clientTag() byte    { return tagMsg }
func (Logout) clientTag() byte { return tagLogout }

// Server is the tagged union of server-to-client protocol messages.
type Server interface {
	serverTag() byte
}

// Okay acknowledges the client frame that carried the same correlation ID.
type Okay struct {
	ID byte
}

// Err rejects the client frame that carried the same correlation ID.
type Err struct {
	ID     byte
	Reason string
}

// Broadcast relays a chat message sent by another user.
type Broadcast struct {
	Sender string
	Text   string
}

// Present tells a freshly logged-in user about one peer already online. It is
// sent directly to the new connection, never broadcast.
type Present struct {
	Handle string
}

// LoggedIn announces to everyone else that a user just logged in.
type LoggedIn struct {
	Handle string
}

// LoggedOut announces to everyone else that a user just logged out.
type LoggedOut struct {
	Handle string
}

func (Okay) serverTag() byte      { return tagOkay }
func (Err) serverTag() byte       { return tagErr }
func (Broadcast) serverTag() byte { return tagBroadcast }
func (Present) serverTag() byte   { return tagPresent }
func (LoggedIn) serverTag() byte  { return tagLoggedIn }
func (LoggedOut) serverTag() byte { return tagLoggedOut }
