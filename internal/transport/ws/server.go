package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/multiworld"
)

const (
	handshakeTimeout = 5 * time.Second
	readIdleTimeout  = 60 * time.Second
	writeTimeout     = 5 * time.Second
	outQueueSize     = 64
)

type Options struct {
	// MessagesPerSecond and Burst bound inbound frames per connection.
	MessagesPerSecond float64
	Burst             int
}

func DefaultOptions() Options {
	return Options{MessagesPerSecond: 20, Burst: 40}
}

type Server struct {
	mgr  *multiworld.Manager
	log  *log.Logger
	opts Options

	upgrader websocket.Upgrader
}

func NewServer(mgr *multiworld.Manager, logger *log.Logger, opts Options) *Server {
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = DefaultOptions().MessagesPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultOptions().Burst
	}
	return &Server{
		mgr:  mgr,
		log:  logger,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, ok := s.handshake(conn, r.URL.Query().Get("world"))
		if !ok {
			return
		}
		s.logf("participant %s joined %s", sess.ParticipantID, sess.CurrentWorld)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-sess.Out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), s.opts.Burst)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !limiter.Allow() {
				queueError(sess.Out, protocol.ErrRateLimit, "too many messages")
				continue
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || !protocol.IsAction(base.Type) {
				queueError(sess.Out, protocol.ErrProtoBadRequest, "expected SLEEP, WAKE or MOVE")
				continue
			}
			if base.ProtocolVersion != protocol.Version {
				queueError(sess.Out, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			var act protocol.ActionMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				queueError(sess.Out, protocol.ErrProtoBadRequest, "malformed action")
				continue
			}
			if err := s.mgr.RouteAction(ctx, &sess, act); err != nil {
				if errors.Is(err, multiworld.ErrWorldBusy) {
					queueError(sess.Out, protocol.ErrWorldBusy, "world inbox busy")
				} else {
					queueError(sess.Out, protocol.ErrInternal, err.Error())
				}
			}
		}

		cancel()
		s.mgr.Leave(sess)
		s.logf("participant %s left %s", sess.ParticipantID, sess.CurrentWorld)
	}
}

func (s *Server) handshake(conn *websocket.Conn, queryWorld string) (multiworld.Session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return multiworld.Session{}, false
	}

	var hello protocol.HelloMsg
	base, err := protocol.DecodeBase(msg)
	if err == nil && base.Type == protocol.TypeHello {
		err = json.Unmarshal(msg, &hello)
	}
	if err != nil || base.Type != protocol.TypeHello {
		rejectHandshake(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return multiworld.Session{}, false
	}
	if hello.ProtocolVersion != protocol.Version {
		rejectHandshake(conn, protocol.ErrProtoBadRequest, "bad protocol_version")
		return multiworld.Session{}, false
	}

	out := make(chan []byte, outQueueSize)
	pref := strings.TrimSpace(hello.WorldPreference)
	if pref == "" {
		pref = queryWorld
	}

	if hello.Auth != nil && strings.TrimSpace(hello.Auth.ResumeToken) != "" {
		sess, resp, err := s.mgr.Attach(strings.TrimSpace(hello.Auth.ResumeToken), out)
		if err == nil {
			return s.finishHandshake(conn, sess, resp.Welcome)
		}
		// Unknown tokens fall through to a fresh join; the client sees E_STALE
		// before its WELCOME.
		if err := writeJSON(conn, protocol.NewError(protocol.ErrStale, "resume token not found")); err != nil {
			return multiworld.Session{}, false
		}
	}
	sess, resp, err := s.mgr.Join(hello.Name, out, pref)
	if err != nil {
		s.logf("join failed: %v", err)
		rejectHandshake(conn, protocol.ErrWorldBusy, "join failed")
		return multiworld.Session{}, false
	}
	return s.finishHandshake(conn, sess, resp.Welcome)
}

// finishHandshake writes WELCOME before the writer goroutine starts, so it is
// always the first frame after a successful HELLO.
func (s *Server) finishHandshake(conn *websocket.Conn, sess multiworld.Session, w protocol.WelcomeMsg) (multiworld.Session, bool) {
	if err := writeJSON(conn, w); err != nil {
		s.mgr.Leave(sess)
		return multiworld.Session{}, false
	}
	return sess, true
}

func rejectHandshake(conn *websocket.Conn, code, message string) {
	_ = writeJSON(conn, protocol.NewError(code, message))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(time.Second))
}

// queueError drops the oldest queued frame when the client is behind.
func queueError(out chan []byte, code, message string) {
	b, err := json.Marshal(protocol.NewError(code, message))
	if err != nil {
		return
	}
	select {
	case out <- b:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
