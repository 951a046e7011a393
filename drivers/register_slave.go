package drivers

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

const httpTimeoutsMs = 3000
const maxWriteBody = 64

// RegisterSlave exports a transport over HTTP for RemoteTransport clients.
type RegisterSlave struct {
	Token    string
	HttpAddr string

	transport RegisterTransport
	server    *http.Server
	logger    *log.Logger

	serverErr chan error
}

func NewRegisterSlave(transport RegisterTransport, httpAddr, token string) *RegisterSlave {
	return &RegisterSlave{
		Token:     token,
		HttpAddr:  httpAddr,
		transport: transport,
		logger:    newLogger("slave"),
	}
}

// Handler returns the router, usable with httptest.
func (rs *RegisterSlave) Handler() http.Handler {
	handler := httprouter.New()
	handler.GET("/info", rs.handleInfo)
	handler.GET("/bar/:bar/offset/:offset/size/:size", rs.handleRead)
	handler.PUT("/bar/:bar/offset/:offset", rs.handleWrite)
	return handler
}

func (rs *RegisterSlave) Start() {
	httpTimeout := httpTimeoutsMs * time.Millisecond

	rs.server = &http.Server{
		Addr:              rs.HttpAddr,
		Handler:           rs.Handler(),
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	rs.serverErr = make(chan error, 1)
	go func() {
		rs.logger.Info("serving registers", "addr", rs.HttpAddr, "transport", rs.transport)
		rs.serverErr <- rs.server.ListenAndServe()
	}()
}

// Err delivers the server exit error.
func (rs *RegisterSlave) Err() <-chan error {
	return rs.serverErr
}

func (rs *RegisterSlave) Close() error {
	if rs.server == nil {
		return nil
	}
	return rs.server.Close()
}

func (rs *RegisterSlave) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(remoteTokenHeader) != rs.Token {
		http.Error(w, "token mismatch", http.StatusUnauthorized)
		return false
	}
	return true
}

func intParams(p httprouter.Params, names ...string) (values []int, err error) {
	for _, name := range names {
		v, convErr := strconv.Atoi(p.ByName(name))
		if convErr != nil {
			err = errors.Wrapf(convErr, "bad %s", name)
			return
		}
		values = append(values, v)
	}
	return
}

func (rs *RegisterSlave) handleInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !rs.authorized(w, r) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RemoteInfo{Transport: rs.transport.String(), Ready: rs.transport.IsReady()})
}

func (rs *RegisterSlave) handleRead(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !rs.authorized(w, r) {
		return
	}
	values, err := intParams(p, "bar", "offset", "size")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := rs.transport.Read(values[0], values[1], values[2])
	if err != nil {
		rs.logger.Error("read failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, hex.EncodeToString(data))
}

func (rs *RegisterSlave) handleWrite(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !rs.authorized(w, r) {
		return
	}
	values, err := intParams(p, "bar", "offset")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWriteBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		http.Error(w, "malformed hex body", http.StatusBadRequest)
		return
	}

	err = rs.transport.Write(values[0], values[1], data)
	if err != nil {
		rs.logger.Error("write failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
