// Package ipc is the local control channel of a running assistant: one JSON
// ControlMessage per unix socket connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocket = "/tmp/voxagent.sock"

const (
	CmdTrigger = "trigger"
	CmdReset   = "reset"
)

type ControlMessage struct {
	Cmd string `json:"cmd"`
}

type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Handler func(ControlMessage) error

type Server struct {
	path    string
	handler Handler

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	wg     sync.WaitGroup
	log    *log.Logger
}

func NewServer(path string, handler Handler) *Server {
	if path == "" {
		path = DefaultSocket
	}
	return &Server{
		path:    path,
		handler: handler,
		log:     log.Default().With("component", "ipc"),
	}
}

// Listen binds the socket, replacing a stale one left by a previous run.
func (s *Server) Listen() error {
	os.Remove(s.path)

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Serve accepts connections until Close.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("ipc: Serve before Listen")
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.log.Warn("Accept failed", "error", err)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.log.Warn("Bad control message", "error", err)
		return
	}

	s.log.Debug("Control message", "cmd", msg.Cmd)

	reply := Reply{OK: true}
	if err := s.handler(msg); err != nil {
		reply = Reply{Error: err.Error()}
	}
	json.NewEncoder(conn).Encode(reply)
}

// Send delivers cmd to the server at path and waits for its reply.
func Send(path, cmd string) error {
	if path == "" {
		path = DefaultSocket
	}

	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("%s: %s", cmd, reply.Error)
	}
	return nil
}

// Dispatch routes trigger and reset commands. Triggers are dropped while a
// previous one is still pending.
func Dispatch(trigger chan<- struct{}, reset func()) Handler {
	return func(m ControlMessage) error {
		switch m.Cmd {
		case CmdTrigger:
			if trigger == nil {
				return errors.New("push-to-talk is disabled")
			}
			select {
			case trigger <- struct{}{}:
			default:
			}
			return nil
		case CmdReset:
			reset()
			return nil
		default:
			return fmt.Errorf("unknown command %q", m.Cmd)
		}
	}
}
