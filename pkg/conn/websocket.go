// WebSocket connection adapters
//
// The server side listens for browser or jackctl clients and bridges
// text messages to device lines. The client side dials a running
// daemon. One text message carries one line.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package conn

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"jack-go-migration/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketServer accepts websocket clients and fans device replies out
// to every connected one. Params are the listen address, e.g.
// ":8765".
type WebSocketServer struct {
	mu      sync.Mutex
	open    bool
	params  string
	in      *lineQueue
	clients map[*websocket.Conn]bool
	server  *http.Server
	logger  *log.Logger
}

// NewWebSocketServer returns a closed server adapter.
func NewWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		in:      newLineQueue(0),
		clients: make(map[*websocket.Conn]bool),
		logger:  log.Default().Sub("ws"),
	}
}

func (w *WebSocketServer) Open(params string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleUpgrade)
	w.server = &http.Server{Addr: params, Handler: mux}
	w.params = params
	w.open = true

	go func() {
		err := w.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			w.logger.Error("listen %s: %v", params, err)
			w.mu.Lock()
			w.open = false
			w.mu.Unlock()
		}
	}()

	w.logger.Info("listening on %s", params)
	return true
}

func (w *WebSocketServer) handleUpgrade(rw http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	w.mu.Lock()
	w.clients[c] = true
	w.mu.Unlock()
	w.logger.Info("client connected from %s", r.RemoteAddr)

	go w.readPump(c)
}

// readPump moves inbound text messages into the receive queue until the
// client goes away.
func (w *WebSocketServer) readPump(c *websocket.Conn) {
	defer func() {
		w.mu.Lock()
		delete(w.clients, c)
		w.mu.Unlock()
		c.Close()
	}()

	for {
		kind, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		w.in.pushBytes(append(data, '\n'))
	}
}

func (w *WebSocketServer) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

func (w *WebSocketServer) Send(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for c := range w.clients {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			delete(w.clients, c)
			c.Close()
		}
	}
}

func (w *WebSocketServer) Receive() string {
	return w.in.pop()
}

func (w *WebSocketServer) Kind() string { return "websocket" }

func (w *WebSocketServer) Params() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.params
}

func (w *WebSocketServer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return
	}
	for c := range w.clients {
		c.Close()
	}
	w.clients = make(map[*websocket.Conn]bool)
	if w.server != nil {
		w.server.Close()
	}
	w.open = false
	w.in.reset()
}

// WebSocketClient dials a daemon. Params are the URL, e.g.
// "ws://localhost:8765".
type WebSocketClient struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	open   bool
	params string
	in     *lineQueue
	logger *log.Logger
}

// NewWebSocketClient returns a closed client adapter.
func NewWebSocketClient() *WebSocketClient {
	return &WebSocketClient{in: newLineQueue(0), logger: log.Default().Sub("ws")}
}

func (w *WebSocketClient) Open(params string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		w.closeLocked()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	c, _, err := dialer.Dial(params, nil)
	if err != nil {
		w.logger.Error("dial %s: %v", params, err)
		return false
	}

	w.conn = c
	w.open = true
	w.params = params
	w.in.reset()

	go func() {
		for {
			kind, data, err := c.ReadMessage()
			if err != nil {
				w.mu.Lock()
				if w.conn == c {
					w.open = false
				}
				w.mu.Unlock()
				return
			}
			if kind == websocket.TextMessage {
				w.in.pushBytes(append(data, '\n'))
			}
		}
	}()
	return true
}

func (w *WebSocketClient) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

func (w *WebSocketClient) Send(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return
	}
	w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := w.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		w.logger.Error("write: %v", err)
		w.closeLocked()
	}
}

func (w *WebSocketClient) Receive() string {
	return w.in.pop()
}

func (w *WebSocketClient) Kind() string { return "websocket" }

func (w *WebSocketClient) Params() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.params
}

func (w *WebSocketClient) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
}

func (w *WebSocketClient) closeLocked() {
	if !w.open {
		return
	}
	w.conn.Close()
	w.conn = nil
	w.open = false
	w.in.reset()
}
