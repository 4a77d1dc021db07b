package mockserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// inbound is any client frame of either dialect.
type inbound struct {
	ID      json.RawMessage   `json:"id"`
	Msg     string            `json:"msg"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	Version string            `json:"version"`
}

// session is one client connection.
type session struct {
	s       *Server
	ws      *websocket.Conn
	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[ws] = struct{}{}
	s.mu.Unlock()

	sess := &session{s: s, ws: ws}
	sess.run()

	s.mu.Lock()
	delete(s.conns, ws)
	s.mu.Unlock()
	_ = ws.Close()
}

func (c *session) run() {
	defer c.wg.Wait()

	ready := !c.s.variant.RequiresHandshake()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.s.logger.Debug("bad frame", "error", err)
			continue
		}

		if !ready {
			if in.Msg != "connect" {
				// Calls before the handshake are ignored.
				continue
			}
			switch c.s.handshake {
			case HandshakeAccept:
				c.write(map[string]any{"msg": "connected", "session": "mock-session"})
				ready = true
			case HandshakeReject:
				c.write(map[string]any{"msg": "failed", "version": wire.HandshakeVersion})
			case HandshakeSilent:
			}
			continue
		}

		if in.Method == "" || len(in.ID) == 0 {
			continue
		}

		var id string
		if err := json.Unmarshal(in.ID, &id); err != nil {
			id = string(in.ID)
		}
		req := Request{ID: id, Method: in.Method, Params: in.Params}

		c.s.mu.Lock()
		c.s.requests = append(c.s.requests, req)
		h := c.s.handlers[in.Method]
		c.s.mu.Unlock()

		// Handlers run concurrently so slow ones answer out of order.
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.answer(in.ID, req, h)
		}()
	}
}

func (c *session) answer(rawID json.RawMessage, req Request, h Handler) {
	var (
		result any
		rerr   *Error
	)
	if h == nil {
		rerr = &Error{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method}
	} else {
		result, rerr = h(req.Params)
	}

	if c.s.variant.RequiresHandshake() {
		reply := map[string]any{"msg": "result", "id": rawID}
		if rerr != nil {
			reply["msg"] = "error"
			reply["error"] = map[string]any{"error": rerr.Code, "reason": rerr.Message}
		} else {
			reply["result"] = result
		}
		c.write(reply)
		return
	}

	reply := map[string]any{"jsonrpc": wire.JSONRPCVersion, "id": rawID}
	if rerr != nil {
		reply["error"] = map[string]any{"code": rerr.Code, "message": rerr.Message}
	} else {
		reply["result"] = result
	}
	c.write(reply)
}

func (c *session) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.s.logger.Debug("encode reply", "error", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.s.logger.Debug("write reply", "error", err)
	}
}
