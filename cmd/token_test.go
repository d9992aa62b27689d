package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raceconnect/utils"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "cli-secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--email", "runner@example.com"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	tokens, err := utils.NewTokenService("cli-secret", nil)
	require.NoError(t, err)
	claims, err := tokens.Verify(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "runner@example.com", claims.Email)
}

func TestTokenCommand_NoSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")

	rootCmd.SetArgs([]string{"token", "--email", "runner@example.com"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	assert.Error(t, rootCmd.Execute())
}
