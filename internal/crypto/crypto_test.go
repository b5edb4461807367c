package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL2HeadersSignature(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret"))
	auth := &HMACAuth{Key: "key-1", Secret: secret, Passphrase: "pass"}

	headers := auth.L2HeadersAt("0xabc", "POST", "/order", `{"size":10}`, 1756100000)

	assert.Equal(t, "0xabc", headers["POLY_ADDRESS"])
	assert.Equal(t, "key-1", headers["POLY_API_KEY"])
	assert.Equal(t, "1756100000", headers["POLY_TIMESTAMP"])
	assert.Equal(t, "pass", headers["POLY_PASSPHRASE"])

	mac := hmac.New(sha256.New, []byte("super-secret"))
	mac.Write([]byte(`1756100000POST/order{"size":10}`))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, headers["POLY_SIGNATURE"])
}

func TestL2HeadersFallsBackToRawSecret(t *testing.T) {
	auth := &HMACAuth{Key: "k", Secret: "not!base64??", Passphrase: "p"}
	headers := auth.L2HeadersAt("0xabc", "GET", "/balances", "", 1)
	assert.NotEmpty(t, headers["POLY_SIGNATURE"])
}

func TestHMACAuthStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "key-12345", Secret: "secret-67890"}
	s := auth.String()
	assert.NotContains(t, s, "12345")
	assert.NotContains(t, s, "67890")
}

func TestEncryptDecryptSecretRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("the-api-secret", "hunter2")
	require.NoError(t, err)

	got, err := DecryptSecret(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "the-api-secret", got)
}

func TestDecryptSecretWrongPassword(t *testing.T) {
	blob, err := EncryptSecret("the-api-secret", "hunter2")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptSecretRequiresInputs(t *testing.T) {
	_, err := EncryptSecret("", "p")
	assert.Error(t, err)
	_, err = EncryptSecret("s", "")
	assert.Error(t, err)
}

func TestLoadSecretRawTakesPrecedence(t *testing.T) {
	got, err := LoadSecret(SecretConfig{RawSecret: "raw", EncryptedSecretPath: "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, "raw", got)
}

func TestLoadSecretFromEncryptedFile(t *testing.T) {
	blob, err := EncryptSecret("file-secret", "pw")
	require.NoError(t, err)

	path := t.TempDir() + "/secret.json"
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadSecret(SecretConfig{EncryptedSecretPath: path, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", got)
}

func TestLoadSecretUnconfigured(t *testing.T) {
	_, err := LoadSecret(SecretConfig{})
	assert.Error(t, err)
}
