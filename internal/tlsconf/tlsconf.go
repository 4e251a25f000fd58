// Package tlsconf derives TLS credentials for the TCP listener from the
// shared token, so servers and clients agree on a key without any PKI.
//
// The private key is a deterministic function of the passphrase:
//
//	HKDF-SHA256(ikm=passphrase, salt="clipnext-tls-v1", info="private-key")
//	→ 64 bytes → reduced into [1, N-1] → ECDSA P-256 scalar
//
// The certificate around it is throwaway. Clients skip chain verification
// and instead compare the server's public key with the one they derived.
package tlsconf

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"golang.org/x/crypto/hkdf"
	"google.golang.org/grpc/credentials"
)

// DefaultPassphrase is used when no token is configured.
const DefaultPassphrase = "clipnext"

const (
	salt       = "clipnext-tls-v1"
	serverName = "clipnext"
)

// ErrKeyMismatch is returned by the client verifier when the server's key
// was derived from a different passphrase.
var ErrKeyMismatch = errors.New("tlsconf: server public key does not match passphrase")

// Material is the server and client side of one passphrase.
type Material struct {
	key    *ecdsa.PrivateKey
	pubDER []byte
}

// New derives the key for passphrase.
func New(passphrase string) (*Material, error) {
	key, err := deriveKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: derive key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: marshal pubkey: %w", err)
	}
	return &Material{key: key, pubDER: pub}, nil
}

// ServerConfig returns a listener config carrying a fresh self-signed
// certificate. ALPN offers h2 and http/1.1 so gRPC and the HTTP invoke
// endpoint can share the listener.
func (m *Material) ServerConfig() (*tls.Config, error) {
	der, err := selfSignedCert(m.key)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: cert: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: m.key}},
		NextProtos:   []string{"h2", "http/1.1"},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// ClientConfig returns a client config that accepts only a server holding
// the derived key.
func (m *Material) ClientConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify:    true, //nolint:gosec // the public key is checked below
		ServerName:            serverName,
		MinVersion:            tls.VersionTLS13,
		VerifyPeerCertificate: m.verify,
	}
}

// ClientCredentials wraps ClientConfig for gRPC.
func (m *Material) ClientCredentials() credentials.TransportCredentials {
	return credentials.NewTLS(m.ClientConfig())
}

func (m *Material) verify(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("tlsconf: server presented no certificate")
	}
	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("tlsconf: parse server cert: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(cert.PublicKey)
	if err != nil {
		return fmt.Errorf("tlsconf: marshal server pubkey: %w", err)
	}
	if !bytes.Equal(pub, m.pubDER) {
		return ErrKeyMismatch
	}
	return nil
}

func deriveKey(passphrase string) (*ecdsa.PrivateKey, error) {
	r := hkdf.New(sha256.New, []byte(passphrase), []byte(salt), []byte("private-key"))
	buf := make([]byte, 64)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("hkdf read: %w", err)
	}

	curve := elliptic.P256()
	n := curve.Params().N
	k := new(big.Int).SetBytes(buf)
	k.Mod(k, new(big.Int).Sub(n, big.NewInt(1)))
	k.Add(k, big.NewInt(1))

	key := new(ecdsa.PrivateKey)
	key.Curve = curve
	key.D = k
	key.X, key.Y = curve.ScalarBaseMult(k.Bytes())
	return key, nil
}

func selfSignedCert(key *ecdsa.PrivateKey) ([]byte, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: serverName},
		DNSNames:              []string{serverName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	return x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
}
