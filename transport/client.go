// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gogama/hydra/request"
)

// DefaultMaxRedirects is the number of redirects followed when a
// request enables FollowLocation without setting MaxRedirects.
const DefaultMaxRedirects = 10

// A clientKey identifies the request settings that require a distinct
// http.Client. Requests with equal keys share a client and therefore
// its connection pool.
type clientKey struct {
	proxy          string
	proxyUsername  string
	proxyPassword  string
	insecure       bool
	skipHost       bool
	cert           string
	key            string
	caCert         string
	caPath         string
	iface          string
	connectTimeout time.Duration
	follow         bool
	maxRedirects   int
}

func keyOf(r *request.Request) clientKey {
	k := clientKey{
		proxy:          r.Proxy,
		insecure:       r.DisableSSLPeerVerification,
		skipHost:       r.DisableSSLHostVerification && !r.DisableSSLPeerVerification,
		cert:           r.SSLCert,
		key:            r.SSLKey,
		caCert:         r.SSLCACert,
		caPath:         r.SSLCAPath,
		iface:          r.Interface,
		connectTimeout: r.ConnectTimeout,
		follow:         r.FollowLocation,
	}
	if k.proxy != "" {
		k.proxyUsername = r.ProxyUsername
		k.proxyPassword = r.ProxyPassword
	}
	if k.follow {
		k.maxRedirects = r.MaxRedirects
		if k.maxRedirects <= 0 {
			k.maxRedirects = DefaultMaxRedirects
		}
	}
	return k
}

type clientCache struct {
	lock    sync.Mutex
	clients map[clientKey]*http.Client
}

func (c *clientCache) get(k clientKey) (*http.Client, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if cl, ok := c.clients[k]; ok {
		return cl, nil
	}
	cl, err := newClient(k)
	if err != nil {
		return nil, err
	}
	c.clients[k] = cl
	return cl, nil
}

func (c *clientCache) closeIdle() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, cl := range c.clients {
		cl.CloseIdleConnections()
	}
}

func newClient(k clientKey) (*http.Client, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()

	dialer := &net.Dialer{
		Timeout:   k.connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	if k.iface != "" {
		addr, err := localAddr(k.iface)
		if err != nil {
			return nil, &setupError{request.InterfaceFailed, err}
		}
		dialer.LocalAddr = addr
	}
	t.DialContext = dialer.DialContext

	if k.proxy != "" {
		u, err := proxyURL(k)
		if err != nil {
			return nil, &setupError{request.Other, err}
		}
		t.Proxy = http.ProxyURL(u)
	}

	tlsConfig, err := newTLSConfig(k)
	if err != nil {
		return nil, &setupError{request.SSLCertProblem, err}
	}
	t.TLSClientConfig = tlsConfig

	cl := &http.Client{Transport: t}
	if !k.follow {
		cl.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		max := k.maxRedirects
		cl.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) > max {
				return errTooManyRedirects
			}
			return nil
		}
	}
	return cl, nil
}

func proxyURL(k clientKey) (*url.URL, error) {
	raw := k.proxy
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("hydra/transport: invalid proxy %q: %w", k.proxy, err)
	}
	if k.proxyUsername != "" || k.proxyPassword != "" {
		u.User = url.UserPassword(k.proxyUsername, k.proxyPassword)
	}
	return u, nil
}

func newTLSConfig(k clientKey) (*tls.Config, error) {
	c := &tls.Config{}

	var roots *x509.CertPool
	if k.caCert != "" || k.caPath != "" {
		roots = x509.NewCertPool()
		if k.caCert != "" {
			if err := appendPEMFile(roots, k.caCert); err != nil {
				return nil, err
			}
		}
		if k.caPath != "" {
			files, err := filepath.Glob(filepath.Join(k.caPath, "*"))
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				if info, err := os.Stat(f); err != nil || info.IsDir() {
					continue
				}
				// Files in a CA directory that are not PEM are skipped.
				_ = appendPEMFile(roots, f)
			}
		}
		c.RootCAs = roots
	}

	if k.cert != "" {
		keyFile := k.key
		if keyFile == "" {
			keyFile = k.cert
		}
		cert, err := tls.LoadX509KeyPair(k.cert, keyFile)
		if err != nil {
			return nil, fmt.Errorf("hydra/transport: failed to load client certificate: %w", err)
		}
		c.Certificates = []tls.Certificate{cert}
	}

	switch {
	case k.insecure:
		c.InsecureSkipVerify = true
	case k.skipHost:
		c.InsecureSkipVerify = true
		c.VerifyPeerCertificate = verifyChainOnly(roots)
	}
	return c, nil
}

func appendPEMFile(pool *x509.CertPool, name string) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("hydra/transport: failed to read CA file: %w", err)
	}
	if !pool.AppendCertsFromPEM(b) {
		return fmt.Errorf("hydra/transport: no certificates in CA file %q", name)
	}
	return nil
}

// verifyChainOnly returns a verifier that checks the peer certificate
// chain against roots (nil means the system roots) without checking
// the host name.
func verifyChainOnly(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("hydra/transport: no peer certificates")
		}
		certs := make([]*x509.Certificate, len(rawCerts))
		for i, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			certs[i] = cert
		}
		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range certs[1:] {
			opts.Intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(opts)
		return err
	}
}

// localAddr resolves an interface name, IP address or host name to a
// local TCP address to bind outgoing connections to.
func localAddr(iface string) (*net.TCPAddr, error) {
	if ip := net.ParseIP(iface); ip != nil {
		return &net.TCPAddr{IP: ip}, nil
	}
	if ifi, err := net.InterfaceByName(iface); err == nil {
		addrs, err := ifi.Addrs()
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok {
				return &net.TCPAddr{IP: ipNet.IP}, nil
			}
		}
		return nil, fmt.Errorf("hydra/transport: interface %q has no addresses", iface)
	}
	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(iface, "0"))
	if err != nil {
		return nil, fmt.Errorf("hydra/transport: failed to resolve interface %q: %w", iface, err)
	}
	return addr, nil
}
