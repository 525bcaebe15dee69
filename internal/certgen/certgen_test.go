package certgen

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCA(t *testing.T) (dir string, caCert *x509.Certificate) {
	t.Helper()
	cert, _, certPEM, keyPEM, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	dir = t.TempDir()
	if err := WritePair(dir, "ca", certPEM, keyPEM); err != nil {
		t.Fatalf("WritePair: %v", err)
	}
	return dir, cert
}

func TestGenerateCA(t *testing.T) {
	cert, key, certPEM, keyPEM, err := GenerateCA("HandMind Dev CA")
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	if !cert.IsCA || !cert.BasicConstraintsValid {
		t.Error("CA certificate should have IsCA and BasicConstraintsValid set")
	}
	if cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Errorf("CA KeyUsage = %v; want CertSign", cert.KeyUsage)
	}
	if cert.Subject.CommonName != "HandMind Dev CA" {
		t.Errorf("CommonName = %q", cert.Subject.CommonName)
	}
	if d := cert.NotAfter.Sub(cert.NotBefore); d < 9*365*24*time.Hour {
		t.Errorf("CA validity too short: %v", d)
	}
	if !key.PublicKey.Equal(cert.PublicKey) {
		t.Error("key does not match certificate")
	}
	if !strings.Contains(string(certPEM), "BEGIN CERTIFICATE") || !strings.Contains(string(keyPEM), "BEGIN EC PRIVATE KEY") {
		t.Error("unexpected PEM encoding")
	}
}

func TestLoadCACredentials_RoundTrip(t *testing.T) {
	dir, want := writeCA(t)

	got, key, err := LoadCACredentials(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatalf("LoadCACredentials: %v", err)
	}
	if !got.Equal(want) {
		t.Error("loaded certificate differs from generated one")
	}
	if _, ok := key.(*ecdsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *ecdsa.PrivateKey", key)
	}
}

func TestLoadCACredentials_RSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(7),
		Subject:               pkix.Name{CommonName: "RSA CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	if err := WritePair(dir, "ca", certPEM, keyPEM); err != nil {
		t.Fatal(err)
	}

	_, key, err := LoadCACredentials(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatalf("LoadCACredentials: %v", err)
	}
	if _, ok := key.(*rsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *rsa.PrivateKey", key)
	}
}

func TestLoadCACredentials_Errors(t *testing.T) {
	dir, _ := writeCA(t)
	caCrt := filepath.Join(dir, "ca.crt")
	caKey := filepath.Join(dir, "ca.key")

	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not pem"), 0o600); err != nil {
		t.Fatal(err)
	}
	pkcs8 := filepath.Join(dir, "pkcs8.key")
	if err := os.WriteFile(pkcs8, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		cert     string
		key      string
		contains string
	}{
		{"missing cert", filepath.Join(dir, "nope.crt"), caKey, "read ca cert"},
		{"missing key", caCrt, filepath.Join(dir, "nope.key"), "read ca key"},
		{"bad cert pem", garbage, caKey, "invalid CA cert PEM"},
		{"bad key pem", caCrt, garbage, "invalid CA key PEM"},
		{"unsupported key", caCrt, pkcs8, "unsupported key type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadCACredentials(tt.cert, tt.key)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %v; want it to contain %q", err, tt.contains)
			}
		})
	}
}

func TestLoadCACredentials_RejectsLeaf(t *testing.T) {
	dir, ca := writeCA(t)
	_, key, err := LoadCACredentials(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatal(err)
	}
	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost"}, ca, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := WritePair(dir, "server", certPEM, keyPEM); err != nil {
		t.Fatal(err)
	}

	_, _, err = LoadCACredentials(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	if err == nil || !strings.Contains(err.Error(), "not a CA") {
		t.Errorf("error = %v; want not a CA", err)
	}
}

func TestGenerateServerCertificate(t *testing.T) {
	ca, caKey, _, _, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1", "api.handmind.test"}, ca, caKey)
	if err != nil {
		t.Fatalf("GenerateServerCertificate: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 2 || cert.DNSNames[0] != "localhost" || cert.DNSNames[1] != "api.handmind.test" {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	roots := x509.NewCertPool()
	roots.AddCert(ca)
	for _, host := range []string{"localhost", "127.0.0.1", "api.handmind.test"} {
		if _, err := cert.Verify(x509.VerifyOptions{Roots: roots, DNSName: host, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}}); err != nil {
			t.Errorf("verify for %s: %v", host, err)
		}
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "EC PRIVATE KEY" {
		t.Fatal("invalid key PEM")
	}
	if _, err := x509.ParseECPrivateKey(keyBlock.Bytes); err != nil {
		t.Errorf("parse key: %v", err)
	}
}

func TestGenerateServerCertificate_NoHosts(t *testing.T) {
	ca, caKey, _, _, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := GenerateServerCertificate(nil, ca, caKey); err == nil {
		t.Error("expected error for empty host list")
	}
}

func TestWritePair_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	if err := WritePair(dir, "server", []byte("c"), []byte("k")); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "server.key"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key mode = %v; want 0600", info.Mode().Perm())
	}
}
