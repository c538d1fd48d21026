package repo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/gotweb/pkg/object"
)

const commitSignaturePrefix = "sshsig-v1"

// ErrUnsignedCommit indicates a commit carrying no signature.
var ErrUnsignedCommit = errors.New("commit is not signed")

// VerifyCommitSignature checks an SSH commit signature of the form
// "sshsig-v1:<format>:<pubkeyB64>:<sigB64>" against the commit's canonical
// signing payload. On success it returns the signer's public key.
func VerifyCommitSignature(c *object.CommitObj) (ssh.PublicKey, error) {
	sig := strings.TrimSpace(c.Signature)
	if sig == "" {
		return nil, ErrUnsignedCommit
	}

	parts := strings.Split(sig, ":")
	if len(parts) != 4 || parts[0] != commitSignaturePrefix {
		return nil, fmt.Errorf("verify signature: malformed signature %q", sig)
	}
	format := parts[1]

	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("verify signature: decode public key: %w", err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return nil, fmt.Errorf("verify signature: parse public key: %w", err)
	}

	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("verify signature: decode signature: %w", err)
	}

	payload := object.CommitSigningPayload(c)
	if err := pub.Verify(payload, &ssh.Signature{Format: format, Blob: blob}); err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}
	return pub, nil
}
