package session

import (
	"errors"
	"net"

	"github.com/google/uuid"

	applog "tradepost/internal/log"
	"tradepost/internal/market"
)

// Server speaks the line-oriented command protocol over TCP, one goroutine
// per connection. Closing a connection stops only its worker; a command
// already dispatched into the core runs to completion first.
type Server struct {
	Addr   string
	Auth   *Auth
	Market *market.Market

	ln net.Listener
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	applog.Info("", "session.listen", map[string]any{"addr": ln.Addr().String()})
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.Handle(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Handle runs one client session to completion.
func (s *Server) Handle(conn net.Conn) {
	defer conn.Close()
	sess := &session{
		sid:    uuid.NewString(),
		auth:   s.Auth,
		market: s.Market,
	}
	applog.Info(sess.sid, "session.open", map[string]any{"remote": conn.RemoteAddr().String()})
	sess.run(conn)
	applog.Info(sess.sid, "session.close", nil)
}
