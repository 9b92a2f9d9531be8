/*
Package frame defines the typed protocol messages exchanged between chat clients
and the server, together with their binary wire encoding.

This file implements the codec. The encoding is a tagged-union scheme: a
one-byte discriminant selects the variant, followed by the variant's fields in
declared order. Bytes encode as themselves; strings encode as a 4-byte
little-endian length followed by that many UTF-8 bytes. A client frame is its
correlation ID followed by the encoded payload. Each encoded frame travels as
exactly one opaque binary message on the transport.
*/
package frame

import (
	"encoding/binary"
	"errors"
)

// Decode errors. ErrNotBinary is produced by transport adapters for inbound
// messages that are not binary-framed, before the payload ever reaches the
// codec; ErrInvalidFrame covers every malformed binary payload.
var (
	ErrNotBinary    = errors.New("this server only accepts binary websocket frames")
	ErrInvalidFrame = errors.New("invalid minichat frame")
)

// EncodeClient serializes a client frame. The frame's Payload must be one of
// the declared payload variants.
func EncodeClient(f Client) []byte {
	buf := []byte{f.ID, f.Payload.clientTag()}

	switch p := f.Payload.(type) {
	case Login:
		buf = appendString(buf, p.Handle)
	case Msg:
		buf = appendString(buf, p.Text)
	case Logout:
	}

	return buf
}

// DecodeClient parses a binary payload into a client frame. It returns
// ErrInvalidFrame for truncated input, unknown discriminants, and trailing
// garbage.
func DecodeClient(data []byte) (Client, error) {
	r := reader{buf: data}

	id, err := r.readByte()
	if err != nil {
		return Client{}, err
	}

	tag, err := r.readByte()
	if err != nil {
		return Client{}, err
	}

	var payload ClientPayload

	switch tag {
	case tagLogin:
		handle, err := r.readString()
		if err != nil {
			return Client{}, err
		}
		payload = Login{Handle: handle}

	case tagMsg:
		text, err := r.readString()
		if err != nil {
			return Client{}, err
		}
		payload = Msg{Text: text}

	case tagLogout:
		payload = Logout{}

	default:
		return Client{}, ErrInvalidFrame
	}

	if !r.exhausted() {
		return Client{}, ErrInvalidFrame
	}

	return Client{ID: id, Payload: payload}, nil
}

// EncodeServer serializes a server frame.
func EncodeServer(f Server) []byte {
	buf := []byte{f.serverTag()}

	switch v := f.(type) {
	case Okay:
		buf = append(buf, v.ID)
	case Err:
		buf = append(buf, v.ID)
		buf = appendString(buf, v.Reason)
	case Broadcast:
		buf = appendString(buf, v.Sender)
		buf = appendString(buf, v.Text)
	case Present:
		buf = appendString(buf, v.Handle)
	case LoggedIn:
		buf = appendString(buf, v.Handle)
	case LoggedOut:
		buf = appendString(buf, v.Handle)
	}

	return buf
}

// DecodeServer parses a binary payload into a server frame. Error semantics
// match DecodeClient. Servers never decode their own frames in production;
// this direction exists for clients and for round-trip testing.
func DecodeServer(data []byte) (Server, error) {
	r := reader{buf: data}

	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}

	var f Server

	switch tag {
	case tagOkay:
		id, err := r.readByte()
		if err != nil {
			return nil, err
		}
		f = Okay{ID: id}

	case tagErr:
		id, err := r.readByte()
		if err != nil {
			return nil, err
		}
		reason, err := r.readString()
		if err != nil {
			return nil, err
		}
		f = Err{ID: id, Reason: reason}

	case tagBroadcast:
		sender, err := r.readString()
		if err != nil {
			return nil, err
		}
		text, err := r.readString()
		if err != nil {
			return nil, err
		}
		f = Broadcast{Sender: sender, Text: text}

	case tagPresent:
		handle, err := r.readString()
		if err != nil {
			return nil, err
		}
		f = Present{Handle: handle}

	case tagLoggedIn:
		handle, err := r.readString()
		if err != nil {
			return nil, err
		}
		f = LoggedIn{Handle: handle}

	case tagLoggedOut:
		handle, err := r.readString()
		if err != nil {
			return nil, err
		}
		f = LoggedOut{Handle: handle}

	default:
		return nil, ErrInvalidFrame
	}

	if !r.exhausted() {
		return nil, ErrInvalidFrame
	}

	return f, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// reader is a cursor over an encoded frame. Every read reports ErrInvalidFrame
// on truncation so decode call sites stay uniform.
type reader struct {
	buf []byte
	off int
}

func (r *reader) readByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrInvalidFrame
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) readString() (string, error) {
	if len(r.buf)-r.off < 4 {
		return "", ErrInvalidFrame
	}
	n := int(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4

	if len(r.buf)-r.off < n {
		return "", ErrInvalidFrame
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}

// exhausted reports whether the whole payload was consumed. Trailing bytes
// make a frame invalid.
func (r *reader) exhausted() bool {
	return r.off == len(r.buf)
}
