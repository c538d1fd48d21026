package repo

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/gotweb/pkg/object"
)

func signedTestCommit(t *testing.T) *object.CommitObj {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("NewSignerFromKey: %v", err)
	}

	c := &object.CommitObj{
		TreeHash:  object.HashBytes([]byte("tree")),
		Author:    "tester",
		Timestamp: 1700000000,
		Message:   "signed",
	}
	sig, err := signer.Sign(rand.Reader, object.CommitSigningPayload(c))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c.Signature = fmt.Sprintf(
		"sshsig-v1:%s:%s:%s",
		sig.Format,
		base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal()),
		base64.StdEncoding.EncodeToString(sig.Blob),
	)
	return c
}

func TestVerifyCommitSignature(t *testing.T) {
	c := signedTestCommit(t)

	pub, err := VerifyCommitSignature(c)
	if err != nil {
		t.Fatalf("VerifyCommitSignature: %v", err)
	}
	if pub.Type() != "ssh-ed25519" {
		t.Fatalf("key type = %q, want ssh-ed25519", pub.Type())
	}
}

func TestVerifyCommitSignatureRejectsTampering(t *testing.T) {
	c := signedTestCommit(t)
	c.Message = "tampered"

	if _, err := VerifyCommitSignature(c); err == nil {
		t.Fatalf("tampered commit should fail verification")
	}
}

func TestVerifyCommitSignatureUnsigned(t *testing.T) {
	c := &object.CommitObj{Message: "plain"}
	if _, err := VerifyCommitSignature(c); !errors.Is(err, ErrUnsignedCommit) {
		t.Fatalf("unsigned = %v, want ErrUnsignedCommit", err)
	}
}

func TestVerifyCommitSignatureMalformed(t *testing.T) {
	c := &object.CommitObj{Signature: "pgp:xxx"}
	if _, err := VerifyCommitSignature(c); err == nil {
		t.Fatalf("malformed signature should fail")
	}
}
