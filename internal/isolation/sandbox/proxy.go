package sandbox

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	paraerrors "github.com/para-dev/para/internal/errors"
)

// proxyHandle is a running allowlisting forward proxy bound to an ephemeral
// local port. No pack example implements an MITM/allowlist proxy, so this
// is built directly on net/http rather than adapted from a third-party
// library; see DESIGN.md.
type proxyHandle struct {
	addr     string
	srv      *http.Server
	listener net.Listener
}

func (h *proxyHandle) url() string {
	return "http://" + h.addr
}

func (h *proxyHandle) stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(stopCtx); err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "stop sandbox proxy", err)
	}
	return nil
}

// startProxy starts a forward proxy that only allows CONNECT (HTTPS) and
// plain HTTP requests to hosts in allowedDomains (exact match or subdomain
// match), returning ConnectionRefused-equivalent 403s for everything else.
func startProxy(allowedDomains []string) (*proxyHandle, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIsolation, "listen for sandbox proxy", err)
	}

	allowed := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		allowed[strings.ToLower(d)] = struct{}{}
	}

	mux := &proxyMux{allowed: allowed}
	srv := &http.Server{Handler: mux}

	go func() { _ = srv.Serve(ln) }()

	return &proxyHandle{addr: ln.Addr().String(), srv: srv, listener: ln}, nil
}

type proxyMux struct {
	allowed map[string]struct{}
}

func (m *proxyMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := hostOnly(r.Host)
	if !m.isAllowed(host) {
		http.Error(w, "domain not allowed by sandbox policy: "+host, http.StatusForbidden)
		return
	}

	if r.Method == http.MethodConnect {
		m.serveConnect(w, r)
		return
	}
	m.serveForward(w, r)
}

func (m *proxyMux) isAllowed(host string) bool {
	if len(m.allowed) == 0 {
		return false
	}
	host = strings.ToLower(host)
	if _, ok := m.allowed[host]; ok {
		return true
	}
	for domain := range m.allowed {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// serveConnect tunnels a CONNECT request (the common case: HTTPS) by
// dialing the target and splicing the two connections together.
func (m *proxyMux) serveConnect(w http.ResponseWriter, r *http.Request) {
	dest, err := net.DialTimeout("tcp", r.Host, 10*time.Second)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer dest.Close()

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "connection does not support hijacking", http.StatusInternalServerError)
		return
	}
	client, _, err := hijacker.Hijack()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer client.Close()

	if _, err := client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = io.Copy(dest, client) }()
	go func() { defer wg.Done(); _, _ = io.Copy(client, dest) }()
	wg.Wait()
}

// serveForward handles plain HTTP (non-CONNECT) proxy requests.
func (m *proxyMux) serveForward(w http.ResponseWriter, r *http.Request) {
	outReq := r.Clone(r.Context())
	outReq.RequestURI = ""

	resp, err := http.DefaultTransport.RoundTrip(outReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func hostOnly(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}
