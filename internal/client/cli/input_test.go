package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubReadPassword(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("no more input")
		}
		a := answers[i]
		i++
		return []byte(a), nil
	}
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name: ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name", &out)
	assert.Error(t, err)
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Password", &out)
	assert.Error(t, err)
}

func TestGetNewPassword(t *testing.T) {
	t.Run("matching", func(t *testing.T) {
		stubReadPassword(t, "Passw0rd!", "Passw0rd!")
		var out bytes.Buffer
		pw, err := GetNewPassword(&out)
		require.NoError(t, err)
		assert.Equal(t, "Passw0rd!", string(pw))
		assert.Contains(t, out.String(), "Repeat password")
	})

	t.Run("mismatch", func(t *testing.T) {
		stubReadPassword(t, "Passw0rd!", "Passw0rd?")
		var out bytes.Buffer
		_, err := GetNewPassword(&out)
		assert.ErrorIs(t, err, errPasswordMismatch)
	})
}
