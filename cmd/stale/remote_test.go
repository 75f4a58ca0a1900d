package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/stale/internal/config"
)

type fakeLookup struct {
	login string
	err   error
	calls int
}

func (f *fakeLookup) AuthenticatedLogin(context.Context) (string, error) {
	f.calls++
	return f.login, f.err
}

func TestResolveBotLogin(t *testing.T) {
	config.ResetForTesting()
	t.Cleanup(config.ResetForTesting)
	ctx := context.Background()
	lookup := &fakeLookup{login: "stale-automation"}

	config.Set(config.KeyGitHubToken, "token")
	config.Set(config.KeyGitHubBotLogin, "configured[bot]")
	login, err := resolveBotLogin(ctx, lookup)
	require.NoError(t, err)
	assert.Equal(t, "configured[bot]", login)
	assert.Zero(t, lookup.calls)

	config.Set(config.KeyGitHubBotLogin, "")
	login, err = resolveBotLogin(ctx, lookup)
	require.NoError(t, err)
	assert.Equal(t, "stale-automation", login)
	assert.Equal(t, 1, lookup.calls)

	lookup.err = errors.New("bad credentials")
	_, err = resolveBotLogin(ctx, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")

	config.Set(config.KeyGitHubToken, "")
	login, err = resolveBotLogin(ctx, lookup)
	require.NoError(t, err)
	assert.Empty(t, login)
	assert.Equal(t, 2, lookup.calls)
}
