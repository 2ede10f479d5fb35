// Package credentials materializes environment-supplied secrets
// (cookie jars, session blobs) in to files inside a request workspace
// so that external tooling can consume them. Secrets are optional:
// an absent secret degrades to anonymous retrieval rather than
// raising an error. Secret values are never logged.
package credentials

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("Credentials")

// Encoding declares how a secret's value is encoded at rest.
type Encoding int

const (
	EncodingBase64 Encoding = iota
	EncodingPlain
)

// Secret is an environment-sourced credential. Name identifies the
// secret in logs; Value holds the (possibly encoded) content.
type Secret struct {
	Name     string
	Value    string
	Encoding Encoding
}

// IsPresent reports whether the secret was supplied at all.
func (secret Secret) IsPresent() bool { return secret.Value != "" }

// Decode returns the secret's raw content.
func (secret Secret) Decode() ([]byte, error) {
	if secret.Encoding == EncodingPlain {
		return []byte(secret.Value), nil
	}

	content, err := base64.StdEncoding.DecodeString(secret.Value)
	if err != nil {
		return nil, fmt.Errorf("secret '%s' is not valid base64: %w", secret.Name, err)
	}

	return content, nil
}

// Materialize writes the decoded secret in to the workspace under the
// given filename, returning the path of the created file. An absent
// secret returns an empty path and no error. Decode or write failures
// raise CredentialFailure, as a secret that was supplied but cannot
// be used indicates operator misconfiguration.
func Materialize(secret Secret, filename string, ws *workspace.Workspace) (string, error) {
	if !secret.IsPresent() {
		log.Emit(logger.DEBUG, "Secret '%s' not supplied, continuing unauthenticated\n", secret.Name)
		return "", nil
	}

	content, err := secret.Decode()
	if err != nil {
		return "", download.NewError(download.CredentialFailure, err)
	}

	path := ws.Join(filename)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", download.NewErrorf(download.CredentialFailure, "secret '%s' could not be written: %w", secret.Name, err)
	}

	log.Emit(logger.INFO, "Materialized secret '%s' in to workspace\n", secret.Name)
	return path, nil
}
