package observer

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"emberhold/internal/protocol"
	"emberhold/internal/sim/colony"
)

// Server exposes the read-only observer feed: HELLO/WELCOME handshake, a
// SNAPSHOT on join, then one FRAME per tick until the client disconnects.
type Server struct {
	colony *colony.Colony
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(c *colony.Colony, logger *log.Logger) *Server {
	return &Server{
		colony: c,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		s.colony.ObserverJoinCh() <- colony.ObserverJoin{ID: sessionID, Out: out}
		defer func() { s.colony.ObserverLeaveCh() <- sessionID }()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop: observers send nothing after HELLO; we only watch
		// for disconnects.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.log.Printf("observer rejected: protocol %q", hello.ProtocolVersion)
		return "", nil
	}

	sessionID = uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		ColonyParams:    s.colony.Params(),
		Catalogs:        s.colony.CatalogInfo(),
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return "", nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", nil
	}

	return sessionID, make(chan []byte, 64)
}
