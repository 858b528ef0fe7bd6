// Command radtest sends a single Access-Request through the scheduler
// and prints the result. It is a one-shot smoke-test companion to the
// automated tests, not a full NAS simulator: the Request Authenticator
// is generated by the scheduler's reactor at send time (see
// internal/radiusclient/reactor.go's sign step), so this command never
// sends a User-Password attribute, which RFC 2865 section 5.2 requires
// to be encrypted against that same authenticator.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/hydraradius/hydraradius/internal/helpers"
	"github.com/hydraradius/hydraradius/internal/radius"
	"github.com/hydraradius/hydraradius/internal/radiusclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		server  = flag.String("server", "127.0.0.1:1812", "RADIUS server address, host:port")
		secret  = flag.String("secret", "", "Shared secret (required)")
		user    = flag.String("user", "testuser", "User-Name attribute value")
		nasPort = flag.Int("nas-port", 0, "NAS-Port attribute value")
		nasAddr = flag.String("nas-ip", "", "NAS-IP-Address attribute value")
		timeout = flag.Duration("timeout", 5*time.Second, "Overall deadline for the round trip")
	)
	flag.Parse()

	if *secret == "" {
		return fmt.Errorf("radtest: -secret is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := radiusclient.Create(radiusclient.DefaultSettings(), logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer client.Destroy()

	if err := client.ServerAdd(radiusclient.ServerSettings{
		Address: *server,
		Secret:  []byte(*secret),
		Retrans: radiusclient.DefaultRetransPolicy(),
		Enabled: true,
	}); err != nil {
		return fmt.Errorf("failed to arm server: %w", err)
	}

	p := &radius.Packet{Code: radius.CodeAccessRequest}
	p.AppendAVP(radius.AttrUserName, []byte(*user))
	if *nasAddr != "" {
		if ip := net.ParseIP(*nasAddr).To4(); ip != nil {
			p.AppendAVP(radius.AttrNASIPAddress, ip)
		}
	}
	p.AppendAVP(radius.AttrNASPort, []byte{
		0, 0,
		byte(helpers.ClampIntToUint16(*nasPort) >> 8),
		byte(helpers.ClampIntToUint16(*nasPort)),
	})

	raw, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	type result struct {
		payload []byte
		err     error
	}
	done := make(chan result, 1)

	start := time.Now()
	_, err = client.Query(nil, radiusclient.QueryIDAuto, raw, func(payload []byte, err error, udata any) {
		done <- result{payload: payload, err: err}
	}, nil)
	if err != nil {
		return fmt.Errorf("query submission failed: %w", err)
	}

	select {
	case r := <-done:
		elapsed := time.Since(start)
		if r.err != nil {
			return fmt.Errorf("query failed after %s: %w", elapsed, r.err)
		}
		resp, err := radius.Unmarshal(r.payload)
		if err != nil {
			return fmt.Errorf("received malformed response: %w", err)
		}
		fmt.Printf("%s (id=%d) in %s\n", resp.Code, resp.Identifier, elapsed)
		return nil
	case <-time.After(*timeout):
		return fmt.Errorf("timed out waiting for a response after %s", *timeout)
	}
}
