/*
Package chat contains the connection/session core of the relay: the concurrent
user pool, per-user outbound queues, and the per-connection session state
machine.

This file implements Session. One session drives one connection through its
lifecycle: await a login, relay messages while the user is active, return to
awaiting on logout, terminate when the connection closes or fails. While a user
is active, inbound frame handling races the outbound forwarder; whichever flow
finishes first settles the cycle and the other is stopped.
*/
package chat

import (
	"errors"

	"github.com/rs/zerolog"

	"minichat/internal/frame"
	"minichat/internal/pkg/logx"
)

// Conn is the transport boundary a session drives. Send writes one server
// frame as a single opaque binary message. Next yields the next inbound client
// frame: an item erroring with frame.ErrNotBinary or frame.ErrInvalidFrame
// flags one undecodable message and leaves the connection readable, while any
// other error means the inbound sequence has ended. Close tears the transport
// down and must be safe to call more than once.
type Conn interface {
	Send(frame.Server) error
	Next() (frame.Client, error)
	Close() error
}

// Session is the state machine governing one connection's login/active/logout
// cycles.
type Session struct {
	pool   *UserPool
	conn   Conn
	logger zerolog.Logger
}

// NewSession constructs a session for one accepted connection. connID is only
// used for log correlation.
func NewSession(pool *UserPool, conn Conn, connID string) *Session {
	sessionLogger := logx.Logger().With().
		Str("conn_id", connID).
		Logger()

	return &Session{
		pool:   pool,
		conn:   conn,
		logger: sessionLogger,
	}
}

// Run executes the session until the connection closes or fails. A user may
// log out and log back in any number of times on the same connection. Whatever
// handle the session holds is released on every exit path, so the pool never
// retains entries for dead connections.
func (s *Session) Run() {
	s.logger.Info().Msg("Connection established.")

	for {
		guard, ok := s.awaitLogin()
		if !ok {
			break
		}

		logoutID, loggedOut := s.active(guard)

		// Release before the logout ack so peers observe LoggedOut exactly
		// once regardless of how the cycle ended.
		guard.Release()

		if !loggedOut {
			break
		}

		if err := s.conn.Send(frame.Okay{ID: logoutID}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to ack logout.")
			break
		}
	}

	s.logger.Info().Msg("Connection closed.")
}

// awaitLogin reads frames until a login succeeds. An undecodable item, a
// non-login frame, or the end of the inbound sequence terminates the session.
// A taken or empty handle is reported to the client and the wait continues.
func (s *Session) awaitLogin() (*UserGuard, bool) {
	for {
		f, err := s.conn.Next()
		if err != nil {
			if isDecodeError(err) {
				s.logger.Warn().Err(err).Msg("Undecodable frame before login. Terminating session.")
			}
			return nil, false
		}

		login, ok := f.Payload.(frame.Login)
		if !ok {
			s.logger.Warn().Msg("Client sent a non-login frame before login. Terminating session.")
			return nil, false
		}

		if login.Handle == "" {
			if err := s.conn.Send(frame.Err{ID: f.ID, Reason: "invalid handle"}); err != nil {
				return nil, false
			}
			continue
		}

		guard, ok := s.pool.Register(login.Handle, func(handle string, pool *UserPool) {
			pool.Broadcast(frame.LoggedOut{Handle: handle})
		})
		if !ok {
			s.logger.Info().Str("handle", login.Handle).Msg("Login rejected, handle already taken.")
			if err := s.conn.Send(frame.Err{ID: f.ID, Reason: "handle taken"}); err != nil {
				return nil, false
			}
			continue
		}

		if !s.announceLogin(guard, f.ID) {
			guard.Release()
			return nil, false
		}

		s.logger.Info().Str("handle", guard.Handle()).Msg("User logged in.")
		return guard, true
	}
}

// announceLogin acks the successful login, tells everyone else about the new
// user, and sends the new user the list of peers already present. The peer
// list goes directly to this connection only. It reports false on any write
// failure.
func (s *Session) announceLogin(guard *UserGuard, loginID byte) bool {
	if err := s.conn.Send(frame.Okay{ID: loginID}); err != nil {
		return false
	}

	s.pool.BroadcastExcept(guard.Handle(), frame.LoggedIn{Handle: guard.Handle()})

	for _, peer := range s.pool.Handles() {
		if peer == guard.Handle() {
			continue
		}
		if err := s.conn.Send(frame.Present{Handle: peer}); err != nil {
			return false
		}
	}

	return true
}

// active relays traffic for a logged-in user until the user logs out, the
// inbound sequence ends, or the outbound forwarder fails. It returns the
// logout correlation ID and true only for an explicit logout.
func (s *Session) active(guard *UserGuard) (byte, bool) {
	stop := make(chan struct{})
	done := make(chan struct{})

	// Outbound forwarder: drain the user's queue onto the connection. A write
	// failure closes the connection so the inbound read below unblocks and
	// the session terminates.
	go func() {
		defer close(done)

		for {
			f, ok := guard.Queue().Next(stop)
			if !ok {
				return
			}
			if err := s.conn.Send(f); err != nil {
				s.logger.Warn().Err(err).Msg("Outbound write failed. Closing connection.")
				s.conn.Close()
				return
			}
		}
	}()

	defer func() {
		close(stop)
		<-done
	}()

	for {
		f, err := s.conn.Next()
		if err != nil {
			if isDecodeError(err) {
				s.logger.Debug().Err(err).Msg("Ignoring undecodable frame.")
				continue
			}
			return 0, false
		}

		switch p := f.Payload.(type) {
		case frame.Msg:
			// Ack to the sender goes through the sender's own queue so it
			// stays ordered with everything else destined for them.
			guard.Send(frame.Okay{ID: f.ID})
			s.pool.BroadcastExcept(guard.Handle(), frame.Broadcast{
				Sender: guard.Handle(),
				Text:   p.Text,
			})

		case frame.Logout:
			s.logger.Info().Str("handle", guard.Handle()).Msg("User logged out.")
			return f.ID, true

		default:
			// Stray frame kinds while active (e.g. a second login) are
			// silently ignored.
		}
	}
}

func isDecodeError(err error) bool {
	return errors.Is(err, frame.ErrInvalidFrame) || errors.Is(err, frame.ErrNotBinary)
}
