package credentials_test

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/credentials"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.FATAL.Level())
}

func allocateWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()

	ws, err := workspace.NewManager(t.TempDir()).Allocate()
	require.NoError(t, err)
	t.Cleanup(ws.Release)

	return ws
}

func Test_Materialize_AbsentSecretIsNotAnError(t *testing.T) {
	ws := allocateWorkspace(t)

	path, err := credentials.Materialize(credentials.Secret{Name: "MISSING"}, "cookies.txt", ws)

	assert.NoError(t, err)
	assert.Empty(t, path)
}

func Test_Materialize_DecodesBase64InToWorkspaceFile(t *testing.T) {
	ws := allocateWorkspace(t)
	secret := credentials.Secret{
		Name:     "COOKIES",
		Value:    base64.StdEncoding.EncodeToString([]byte("# Netscape HTTP Cookie File")),
		Encoding: credentials.EncodingBase64,
	}

	path, err := credentials.Materialize(secret, "cookies.txt", ws)
	require.NoError(t, err)

	assert.Equal(t, ws.Join("cookies.txt"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Netscape HTTP Cookie File", string(content))
}

func Test_Materialize_WritesPlainSecretsVerbatim(t *testing.T) {
	ws := allocateWorkspace(t)
	secret := credentials.Secret{Name: "RAW", Value: "token=abc", Encoding: credentials.EncodingPlain}

	path, err := credentials.Materialize(secret, "session.txt", ws)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "token=abc", string(content))
}

func Test_Materialize_MalformedSecretRaisesCredentialFailure(t *testing.T) {
	ws := allocateWorkspace(t)
	secret := credentials.Secret{Name: "BROKEN", Value: "not base64!!", Encoding: credentials.EncodingBase64}

	path, err := credentials.Materialize(secret, "cookies.txt", ws)

	assert.Empty(t, path)
	require.Error(t, err)
	assert.Equal(t, download.CredentialFailure, download.KindOf(err))
	assert.NoFileExists(t, ws.Join("cookies.txt"))
}
