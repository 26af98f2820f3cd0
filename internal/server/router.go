package server

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vitalix-dev/vitalix-bmi/internal/service"
	"github.com/vitalix-dev/vitalix-bmi/pkg/bmi"
)

// Router serves the Vitalix line protocol over TCP.
// Commands are single lines; responses are "OK [json]", "ERR <msg>" or "PONG".
type Router struct {
	svc  *service.Service
	cert *tls.Certificate

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
}

func NewRouter(svc *service.Service) *Router {
	return &Router{svc: svc}
}

// SetCertificate sets the TLS certificate for the router.
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Addr returns the bound listener address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop closes the listener; in-flight connections finish on their own.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.listener != nil {
		r.listener.Close()
	}
}

// Listen starts the TCP server on the given port.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, 100) // Max 100 concurrent connections

	for {
		conn, err := listener.Accept()
		if err != nil {
			r.mu.Lock()
			stopped := r.stopped
			r.mu.Unlock()
			if stopped {
				return nil
			}
			continue
		}

		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.handleConnection(c)
		}(conn)
	}
}

func (r *Router) handleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		// Deadline for the next command
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			return // Connection closed or timeout
		}

		line = strings.TrimSpace(line)
		parts := strings.Fields(line)
		if len(parts) < 1 {
			continue
		}

		command := strings.ToUpper(parts[0])

		switch command {
		case "COMPUTE":
			// COMPUTE <owner> <weight> <height> <permit>
			if len(parts) < 5 {
				continue
			}
			weight, werr := strconv.ParseFloat(parts[2], 64)
			height, herr := strconv.ParseFloat(parts[3], 64)
			permit, perr := strconv.ParseBool(parts[4])
			if werr != nil || herr != nil || perr != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}

			rep, err := r.svc.Compute(parts[1], bmi.Input{Weight: weight, Height: height, Permit: permit})
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				writeJSON(conn, rep)
			}

		case "GET_RECORD":
			if len(parts) < 2 {
				continue
			}
			rec, err := r.svc.Record(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				writeJSON(conn, rec)
			}

		case "GET_DATA":
			if len(parts) < 2 {
				continue
			}
			msg, err := r.svc.GetData(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				writeJSON(conn, msg)
			}

		case "DEL_RECORD":
			// DEL_RECORD <owner> <permit>
			if len(parts) < 3 {
				continue
			}
			permit, perr := strconv.ParseBool(parts[2])
			if perr != nil {
				fmt.Fprintln(conn, "ERR invalid arguments")
				continue
			}
			err := r.svc.DeleteData(parts[1], permit)
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				fmt.Fprintln(conn, "OK")
			}

		case "SET_USER":
			// SET_USER <owner> <name...>
			if len(parts) < 3 {
				continue
			}
			name := strings.Join(parts[2:], " ")
			p, err := r.svc.SetUser(parts[1], name)
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				writeJSON(conn, p)
			}

		case "GET_PROFILE":
			if len(parts) < 2 {
				continue
			}
			p, err := r.svc.Profile(parts[1])
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				writeJSON(conn, p)
			}

		case "LIST_OWNERS":
			list, err := r.svc.Owners()
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
			} else {
				writeJSON(conn, list)
			}

		case "PING":
			fmt.Fprintln(conn, "PONG")

		case "QUIT":
			return
		}
	}
}

func writeJSON(conn net.Conn, v any) {
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(conn, "ERR internal error")
		return
	}
	fmt.Fprintln(conn, "OK", string(res))
}
