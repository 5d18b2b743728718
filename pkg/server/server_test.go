package server

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cloudscale-ch/lbbackend/pkg/config"
	"cloudscale-ch/lbbackend/pkg/telemetry/metrics"
)

// syncBuffer makes a bytes.Buffer safe for the server's logging
// goroutines to share with test assertions.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.DocumentRoot = t.TempDir()
	cfg.Telemetry.Stats.Schedule = ""
	return cfg
}

// startServer starts a server on an ephemeral port and returns it with
// the buffer its logs go to. Shutdown happens via t.Cleanup.
func startServer(t *testing.T, cfg *config.Config) (*Server, *syncBuffer) {
	t.Helper()

	logs := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := New(cfg, logger, metrics.NewCollector("test"))
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		srv.Wait()
	})
	return srv, logs
}

// request performs one HTTP request over conn, preceded by an optional
// raw PROXY header, and returns the full response.
func request(t *testing.T, conn net.Conn, header []byte, path string) string {
	t.Helper()

	if len(header) > 0 {
		if _, err := conn.Write(header); err != nil {
			t.Fatalf("writing PROXY header: %v", err)
		}
	}
	fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n", path)

	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return string(resp)
}

func TestServerPlainConnections(t *testing.T) {
	srv, _ := startServer(t, testConfig(t))

	resp, err := http.Get("http://" + srv.Addr().String() + "/hostname")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	hostname, _ := os.Hostname()
	if string(body) != hostname {
		t.Errorf("body = %q, want %q", body, hostname)
	}
}

func TestServerProxyV1(t *testing.T) {
	srv, logs := startServer(t, testConfig(t))

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	header := []byte("PROXY TCP4 203.0.113.7 192.0.2.10 49152 8000\r\n")
	resp := request(t, conn, header, "/hostname")

	if !strings.Contains(resp, "200 OK") {
		t.Fatalf("unexpected response:\n%s", resp)
	}
	hostname, _ := os.Hostname()
	if !strings.HasSuffix(resp, hostname) {
		t.Errorf("response does not end with hostname %q:\n%s", hostname, resp)
	}

	// The access log must carry the relayed client address, not the
	// local socket's.
	if got := logs.String(); !strings.Contains(got, "203.0.113.7:49152") {
		t.Errorf("relayed address missing from logs:\n%s", got)
	}
}

func TestServerProxyV2(t *testing.T) {
	srv, logs := startServer(t, testConfig(t))

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Version 2, PROXY command, TCP over IPv4.
	header := []byte("\x0D\x0A\x0D\x0A\x00\x0D\x0A\x51\x55\x49\x54\x0A")
	header = append(header, 0x21, 0x11)
	block := make([]byte, 12)
	copy(block[0:4], net.IPv4(203, 0, 113, 9).To4())
	copy(block[4:8], net.IPv4(192, 0, 2, 10).To4())
	binary.BigEndian.PutUint16(block[8:10], 41000)
	binary.BigEndian.PutUint16(block[10:12], 8000)
	header = binary.BigEndian.AppendUint16(header, uint16(len(block)))
	header = append(header, block...)

	resp := request(t, conn, header, "/hostname")
	if !strings.Contains(resp, "200 OK") {
		t.Fatalf("unexpected response:\n%s", resp)
	}
	if got := logs.String(); !strings.Contains(got, "203.0.113.9:41000") {
		t.Errorf("relayed address missing from logs:\n%s", got)
	}
}

func TestServerRejectsMalformedHeader(t *testing.T) {
	srv, logs := startServer(t, testConfig(t))

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Signature matches but the field count is wrong.
	resp := request(t, conn, []byte("PROXY TCP4 not enough\r\n"), "/hostname")
	if strings.Contains(resp, "200 OK") {
		t.Fatalf("expected the connection to be dropped, got:\n%s", resp)
	}
	if got := logs.String(); !strings.Contains(got, "invalid PROXY header") {
		t.Errorf("rejection missing from logs:\n%s", got)
	}
}

func TestServerTLS(t *testing.T) {
	cfg := testConfig(t)
	cfg.TLS.Enabled = true
	cfg.TLS.CertFile = filepath.Join(t.TempDir(), "server.pem")
	writeTestCert(t, cfg.TLS.CertFile)

	srv, logs := startServer(t, cfg)

	conn, err := tls.Dial("tcp", srv.Addr().String(), &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("tls dial: %v", err)
	}
	defer conn.Close()

	// The PROXY header rides inside the TLS stream.
	header := []byte("PROXY TCP4 203.0.113.7 192.0.2.10 49152 8000\r\n")
	resp := request(t, conn, header, "/hostname")

	if !strings.Contains(resp, "200 OK") {
		t.Fatalf("unexpected response:\n%s", resp)
	}
	if got := logs.String(); !strings.Contains(got, "203.0.113.7:49152") {
		t.Errorf("relayed address missing from logs:\n%s", got)
	}
}

func TestServerConcurrentEndlessStreams(t *testing.T) {
	srv, _ := startServer(t, testConfig(t))

	read := func(path string) error {
		conn, err := net.Dial("tcp", srv.Addr().String())
		if err != nil {
			return err
		}
		defer conn.Close()

		fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: test\r\n\r\n", path)
		br := bufio.NewReader(conn)
		line, err := br.ReadString('\n')
		if err != nil {
			return err
		}
		if !strings.Contains(line, "200 OK") {
			return fmt.Errorf("unexpected status line %q", line)
		}
		// Read a chunk of the stream, then hang up.
		_, err = io.ReadFull(br, make([]byte, 512))
		return err
	}

	errCh := make(chan error, 2)
	for _, path := range []string{"/endless/a", "/endless/b"} {
		go func() { errCh <- read(path) }()
	}
	for range 2 {
		if err := <-errCh; err != nil {
			t.Errorf("stream: %v", err)
		}
	}
}

func TestServerMetricsListener(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:0"

	srv, logs := startServer(t, cfg)

	// One real request so the connection counters have a series to show.
	if resp, err := http.Get("http://" + srv.Addr().String() + "/hostname"); err == nil {
		resp.Body.Close()
	}

	// The metrics listener binds an ephemeral port; fish it from the log.
	var addr string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "metrics listening") {
			if i := strings.Index(line, `"addr":"`); i >= 0 {
				rest := line[i+len(`"addr":"`):]
				addr = rest[:strings.Index(rest, `"`)]
			}
		}
	}
	if addr == "" {
		t.Fatalf("metrics address not found in logs:\n%s", logs.String())
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "test_connections_total") {
		t.Errorf("metrics output missing connection counter:\n%s", body)
	}
}
