package pilotdash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/sync/cio"
	logp "github.com/charmbracelet/log"
	"github.com/j-keck/arping"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "pilotdash",
})

// SetLogLevel changes the level of the package logger.
func SetLogLevel(level logp.Level) {
	log.SetLevel(level)
}

const timeout = 5 * time.Second

const (
	pathStatus   = "/api/status"
	pathPosition = "/api/position"
	pathSocket   = "/socket"
)

var ErrUnexpectedResponse = errors.New("unexpected response")

type StatusResource interface {
	GetStatus(ctx context.Context) (Status, error)
	SaveStatus(ctx context.Context, status Status) error
}

type PositionResource interface {
	GetPosition(ctx context.Context) (Position, error)
}

// Client talks to the vehicle's status and position resources.
type Client struct {
	base *url.URL
	http *http.Client
}

func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("could not parse vehicle url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid vehicle url scheme: %q", u.Scheme)
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// SocketURL is the real-time channel endpoint on the same origin.
func (c *Client) SocketURL() string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += pathSocket
	return u.String()
}

func (c *Client) Host() string {
	return c.base.Hostname()
}

func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	log.Debug("get status")
	var status Status
	if err := c.do(ctx, http.MethodGet, pathStatus, nil, &status); err != nil {
		return Status{}, fmt.Errorf("could not get status: %w", err)
	}
	return status, nil
}

func (c *Client) SaveStatus(ctx context.Context, status Status) error {
	log.Debug("save status", "armed", status.Armed)
	if err := c.do(ctx, http.MethodPost, pathStatus, status, nil); err != nil {
		return fmt.Errorf("could not save status: %w", err)
	}
	return nil
}

func (c *Client) GetPosition(ctx context.Context) (Position, error) {
	log.Debug("get position")
	var pos Position
	if err := c.do(ctx, http.MethodGet, pathPosition, nil, &pos); err != nil {
		return Position{}, fmt.Errorf("could not get position: %w", err)
	}
	return pos, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: %d", ErrUnexpectedResponse, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(cio.TimeoutReader(resp.Body, timeout)).Decode(out); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}
	return nil
}

// MacAddress resolves the hardware address of the vehicle over ARP.
// It needs the 'cap_net_raw+ep' capability.
func MacAddress(ip string) (string, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		ips, err := net.LookupIP(ip)
		if err != nil || len(ips) == 0 {
			return "", fmt.Errorf("could not resolve %q: %w", ip, err)
		}
		addr = ips[0]
	}
	hw, _, err := arping.Ping(addr)
	if err != nil {
		return "", fmt.Errorf("could not get the mac address: %w", err)
	}
	return hw.String(), nil
}
