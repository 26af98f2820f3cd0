// Package sdk provides the client-side library for the Vitalix BMI store.
// It supports both remote connections via TCP/TLS and local embedded mode.
package sdk

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/vitalix-dev/vitalix-bmi/pkg/bmi"
	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
)

// Client is a remote client for the Vitalix daemon.
// It implements the BmiStore interface and additionally exposes the
// Compute and Ping commands.
type Client struct {
	addr   string
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex // Protects concurrent access to the connection
}

// Connect establishes a TLS-encrypted connection to a remote Vitalix daemon.
// If VITALIX_DISABLE_TLS is set to "true", it falls back to plain TCP.
func Connect(addr string) (*Client, error) {
	c := &Client{addr: addr}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	var conn net.Conn
	var err error

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	if os.Getenv("VITALIX_DISABLE_TLS") == "true" {
		conn, err = dialer.Dial("tcp", c.addr)
	} else {
		config := &tls.Config{
			InsecureSkipVerify: true, // Self-signed certs for internal traffic
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	}

	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// sendAndReceive runs one protocol round trip with reconnect and backoff.
func (c *Client) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	var resp string

	for i := 0; i < 3; i++ {
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration(i*100) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		_, err = fmt.Fprint(c.conn, cmd+"\n")
		if err == nil {
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				resp = strings.TrimSpace(resp)
				if strings.HasPrefix(resp, "ERR") {
					return "", remoteError(strings.TrimPrefix(resp, "ERR "))
				}
				return resp, nil
			}
		}

		fmt.Fprintf(os.Stderr, "[Vitalix SDK] Attempt %d failed: %v. Reconnecting...\n", i+1, err)

		if closeErr := c.reconnect(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "[Vitalix SDK] Reconnect attempt failed: %v\n", closeErr)
		}

		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after 3 attempts. last error: %v", err)
}

// remoteError maps daemon error text back onto the SDK sentinels so callers
// can use errors.Is regardless of transport.
func remoteError(msg string) error {
	switch msg {
	case ErrRecordNotFound.Error():
		return ErrRecordNotFound
	case ErrProfileNotFound.Error():
		return ErrProfileNotFound
	case ErrProfileExists.Error():
		return ErrProfileExists
	}
	return errors.New(msg)
}

// Compute submits a measurement for evaluation on the daemon.
func (c *Client) Compute(owner string, in bmi.Input) (bmi.Report, error) {
	cmd := fmt.Sprintf("COMPUTE %s %v %v %t", owner, in.Weight, in.Height, in.Permit)
	resp, err := c.sendAndReceive(cmd)
	if err != nil {
		return bmi.Report{}, err
	}
	var rep bmi.Report
	err = json.Unmarshal([]byte(strings.TrimPrefix(resp, "OK ")), &rep)
	return rep, err
}

// GetData returns the formatted summary of an owner's stored record.
func (c *Client) GetData(owner string) (string, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("GET_DATA %s", owner))
	if err != nil {
		return "", err
	}
	var msg string
	err = json.Unmarshal([]byte(strings.TrimPrefix(resp, "OK ")), &msg)
	return msg, err
}

// --- BmiStore implementation ---

func (c *Client) GetRecord(owner string) (schema.Record, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("GET_RECORD %s", owner))
	if err != nil {
		return schema.Record{}, err
	}
	var rec schema.Record
	err = json.Unmarshal([]byte(strings.TrimPrefix(resp, "OK ")), &rec)
	return rec, err
}

// PutRecord stores a record by replaying it as a permitted computation.
// The daemon owns record identity, so the stored copy may carry a fresh ID.
func (c *Client) PutRecord(rec schema.Record) error {
	_, err := c.Compute(rec.Owner, bmi.Input{Weight: rec.Weight, Height: rec.Height, Permit: true})
	return err
}

func (c *Client) DeleteRecord(owner string) error {
	_, err := c.sendAndReceive(fmt.Sprintf("DEL_RECORD %s true", owner))
	return err
}

func (c *Client) PutProfile(p schema.Profile) error {
	_, err := c.sendAndReceive(fmt.Sprintf("SET_USER %s %s", p.Owner, p.Name))
	return err
}

func (c *Client) GetProfile(owner string) (schema.Profile, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("GET_PROFILE %s", owner))
	if err != nil {
		return schema.Profile{}, err
	}
	var p schema.Profile
	err = json.Unmarshal([]byte(strings.TrimPrefix(resp, "OK ")), &p)
	return p, err
}

func (c *Client) Owners() ([]string, error) {
	resp, err := c.sendAndReceive("LIST_OWNERS")
	if err != nil {
		return nil, err
	}
	var list []string
	err = json.Unmarshal([]byte(strings.TrimPrefix(resp, "OK ")), &list)
	return list, err
}

// Ping checks daemon liveness.
func (c *Client) Ping() error {
	resp, err := c.sendAndReceive("PING")
	if err != nil {
		return err
	}
	if resp != "PONG" {
		return fmt.Errorf("unexpected ping response: %s", resp)
	}
	return nil
}

// Close sends QUIT and closes the connection.
func (c *Client) Close() error {
	fmt.Fprintln(c.conn, "QUIT")
	return c.conn.Close()
}
