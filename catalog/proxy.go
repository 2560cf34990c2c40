// ABOUTME: SSH+SOCKS5 dialer for fetching catalogs from behind a jump host
// ABOUTME: Parses ssh+socks5://user@host:port?private-key=/path proxy URLs

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
)

type dialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// proxyConfig is the parsed form of a CATALOG_ALL_PROXY value
type proxyConfig struct {
	Username string
	Host     string
	KeyPath  string
}

func parseProxyURL(allProxy string) (proxyConfig, error) {
	proxyURL, err := url.Parse(strings.TrimPrefix(allProxy, "ssh+"))
	if err != nil {
		return proxyConfig{}, fmt.Errorf("failed to parse catalog proxy URL: %w", err)
	}
	if proxyURL.Scheme != "socks5" {
		return proxyConfig{}, fmt.Errorf("catalog proxy must use ssh+socks5 scheme, got %q", proxyURL.Scheme)
	}
	if proxyURL.Host == "" {
		return proxyConfig{}, errors.New("catalog proxy URL is missing a host")
	}

	query, err := url.ParseQuery(proxyURL.RawQuery)
	if err != nil {
		return proxyConfig{}, fmt.Errorf("failed to parse catalog proxy query params: %w", err)
	}

	cfg := proxyConfig{Host: proxyURL.Host, KeyPath: query.Get("private-key")}
	if proxyURL.User != nil {
		cfg.Username = proxyURL.User.Username()
	}
	if cfg.KeyPath == "" {
		return proxyConfig{}, errors.New("catalog proxy URL missing required 'private-key' query param")
	}
	return cfg, nil
}

// socks5DialContext returns a dial function that lazily opens the SSH tunnel
// on first use and reuses it afterwards.
func socks5DialContext(allProxy string) (dialContextFunc, error) {
	cfg, err := parseProxyURL(allProxy)
	if err != nil {
		return nil, err
	}

	key, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH private key %s: %w", cfg.KeyPath, err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.Mutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.Lock()
		if dialer == nil {
			d, err := socks5Proxy.Dialer(cfg.Username, string(key), cfg.Host)
			if err != nil {
				mut.Unlock()
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = d
		}
		d := dialer
		mut.Unlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return d(network, address)
	}, nil
}
