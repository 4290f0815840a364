/*
Copyright (C) 2024  DataCode Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package session implements the WebSocket session server of spec §6.1: one
// goroutine-per-connection read loop upgrading an http.Request to a
// websocket.Conn, exactly the shape memcp's own "websocket" SCM primitive
// (scm/network.go) upgrades a request and spawns a read-loop goroutine
// guarded by a send mutex — generalized here to own a private
// eval.Interpreter (plus its own pathglue.Registry for lib:// shares) per
// connection instead of a single shared callback pair.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dcscript/datacode/eval"
	"github.com/dcscript/datacode/host/iobackend"
	"github.com/dcscript/datacode/pathglue"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns every live client session and the virtual-environment mode
// flag (spec §6.2 --use-ve: upload_file requires it, getcwd() returns "").
type Server struct {
	UseVE   bool
	UserDir string // base directory for per-session upload staging

	mu       sync.Mutex
	sessions map[string]*clientSession
}

func NewServer(useVE bool, userDir string) *Server {
	return &Server{UseVE: useVE, UserDir: userDir, sessions: make(map[string]*clientSession)}
}

type clientSession struct {
	id        string
	interp    *sessionInterp
	shareDir  string
	sendMu    sync.Mutex
	conn      *websocket.Conn
	watchers  map[string]*iobackend.DirWatcher
	watchersM sync.Mutex
}

type fileEvent struct {
	Type      string `json:"type"`
	ShareName string `json:"share_name"`
	Filename  string `json:"filename"`
	Op        string `json:"op"`
}

// sessionInterp wraps eval.Interpreter, overriding only ResolveShare so the
// rest of builtins.Interp (CallFunction/Print/Getcwd/RecordRelation) keeps
// the embedded Interpreter's behavior unchanged — Go's embedding makes this
// a one-method override instead of a full re-implementation of the
// interface.
type sessionInterp struct {
	*eval.Interpreter
	shares *pathglue.Registry
}

func (s *sessionInterp) ResolveShare(raw string) (string, error) {
	return s.shares.Resolve(raw)
}

// ServeHTTP implements the spec §6.1 WebSocket endpoint: upgrade, then read
// one JSON request per WebSocket message until the client disconnects.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("session: upgrade failed: %v", err)
		return
	}
	cs := &clientSession{
		id:       uuid.NewString(),
		conn:     conn,
		watchers: make(map[string]*iobackend.DirWatcher),
	}
	in := eval.NewInterpreter()
	var shareDir string
	if srv.UserDir != "" {
		shareDir = filepath.Join(srv.UserDir, cs.id)
		_ = os.MkdirAll(shareDir, 0o755)
	}
	in.SetWorkingDir(shareDir, srv.UseVE)
	cs.interp = &sessionInterp{Interpreter: in, shares: pathglue.NewRegistry()}
	cs.shareDir = shareDir

	srv.mu.Lock()
	srv.sessions[cs.id] = cs
	srv.mu.Unlock()
	defer func() {
		srv.mu.Lock()
		delete(srv.sessions, cs.id)
		srv.mu.Unlock()
		cs.watchersM.Lock()
		for _, w := range cs.watchers {
			w.Close()
		}
		cs.watchersM.Unlock()
		conn.Close()
	}()

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("session %s: panic in read loop: %v", cs.id, rec)
		}
	}()

	for {
		messageType, msg, err := conn.ReadMessage()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); ok {
				return
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		resp := cs.handle(srv, msg)
		cs.send(resp)
	}
}

func (cs *clientSession) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	cs.sendMu.Lock()
	defer cs.sendMu.Unlock()
	_ = cs.conn.WriteMessage(websocket.TextMessage, b)
}

// request mirrors every field any of the three request shapes of spec
// §6.1 might carry; unused fields for a given Type are simply ignored. A
// missing Type defaults to "execute" for backward compatibility, per spec.
type request struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	IP       string `json:"ip"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Domain   string `json:"domain"`
	ShareName string `json:"share_name"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type executeResponse struct {
	Success bool     `json:"success"`
	Output  []string `json:"output"`
	Error   string   `json:"error,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (cs *clientSession) handle(srv *Server, raw []byte) any {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return statusResponse{Success: false, Error: fmt.Sprintf("invalid request: %v", err)}
	}
	switch req.Type {
	case "", "execute":
		return cs.execute(req.Code)
	case "smb_connect":
		return cs.smbConnect(req)
	case "upload_file":
		return cs.uploadFile(srv, req)
	default:
		return statusResponse{Success: false, Error: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}

func (cs *clientSession) execute(code string) executeResponse {
	err := cs.interp.Exec(code)
	output := cs.interp.CaptureOutput()
	if err != nil {
		return executeResponse{Success: false, Output: output, Error: err.Error()}
	}
	return executeResponse{Success: true, Output: output}
}

// smbConnect registers a lib:// share backed by a local staging directory
// (see pathglue's package doc: no SMB client library exists anywhere in
// the corpus this module was grounded on, so the protocol exchange itself
// is not implemented — only the share-name-to-directory mapping
// list_files/read_file need is). It also starts a directory watcher on the
// share so a file dropped in by anything other than this session's own
// upload_file (another process, an SMB client writing directly into the
// staging directory) is pushed to the client as an unsolicited file_event
// message, rather than requiring the client to poll list_files.
func (cs *clientSession) smbConnect(req request) statusResponse {
	if req.ShareName == "" {
		return statusResponse{Success: false, Error: "smb_connect: share_name is required"}
	}
	dir := filepath.Join(cs.shareDir, "shares", req.ShareName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return statusResponse{Success: false, Error: err.Error()}
	}
	cs.interp.shares.Connect(req.ShareName, dir)

	cs.watchersM.Lock()
	if old, ok := cs.watchers[req.ShareName]; ok {
		old.Close()
	}
	w, err := iobackend.WatchDir(dir)
	if err == nil {
		cs.watchers[req.ShareName] = w
		go cs.forwardFileEvents(req.ShareName, w)
	}
	cs.watchersM.Unlock()

	return statusResponse{Success: true, Message: fmt.Sprintf("connected share %q", req.ShareName)}
}

func (cs *clientSession) forwardFileEvents(shareName string, w *iobackend.DirWatcher) {
	for ev := range w.Events() {
		cs.send(fileEvent{Type: "file_event", ShareName: shareName, Filename: ev.Name, Op: ev.Op})
	}
}

// uploadFile implements spec §6.1's upload_file: writes into the session's
// isolated staging directory, requiring virtual-environment mode per the
// spec's explicit "requires the server to be started in virtual-environment
// mode" clause.
func (cs *clientSession) uploadFile(srv *Server, req request) statusResponse {
	if !srv.UseVE {
		return statusResponse{Success: false, Error: "upload_file: requires --use-ve"}
	}
	if req.Filename == "" {
		return statusResponse{Success: false, Error: "upload_file: filename is required"}
	}
	if cs.shareDir == "" {
		return statusResponse{Success: false, Error: "upload_file: no session directory configured"}
	}
	var data []byte
	if strings.HasPrefix(req.Content, "base64:") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(req.Content, "base64:"))
		if err != nil {
			return statusResponse{Success: false, Error: fmt.Sprintf("upload_file: %v", err)}
		}
		data = decoded
	} else {
		data = []byte(req.Content)
	}
	dest := filepath.Join(cs.shareDir, filepath.Base(req.Filename))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return statusResponse{Success: false, Error: err.Error()}
	}
	return statusResponse{Success: true, Message: fmt.Sprintf("uploaded %s", req.Filename)}
}
