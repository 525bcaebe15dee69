// Package main generates a development CA and a server certificate for the
// HandMind API. An existing CA in the output directory is reused, so clients
// that already trust it keep working after the server certificate is rotated.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/handmind/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs of the server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hostList := splitHosts(*hosts)
	if len(hostList) == 0 {
		return errors.New("-hosts must name at least one host")
	}

	caCrt := filepath.Join(*dir, "ca.crt")
	caKeyPath := filepath.Join(*dir, "ca.key")

	caCert, caKey, err := certgen.LoadCACredentials(caCrt, caKeyPath)
	switch {
	case err == nil:
		fmt.Fprintln(out, "Reusing CA from", caCrt)
	case errors.Is(err, os.ErrNotExist):
		cert, key, certPEM, keyPEM, genErr := certgen.GenerateCA("HandMind Dev CA")
		if genErr != nil {
			return genErr
		}
		if err := certgen.WritePair(*dir, "ca", certPEM, keyPEM); err != nil {
			return err
		}
		caCert, caKey = cert, key
		fmt.Fprintln(out, "Created CA", caCrt)
	default:
		return err
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(hostList, caCert, caKey)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(*dir, "server", certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(out, "Server certificate for %s written to %s\n", strings.Join(hostList, ", "), *dir)
	return nil
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
