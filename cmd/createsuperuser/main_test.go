package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/repository"
)

func newStore() (*credential.Store, *repository.MemoryUserRepo) {
	repo := repository.NewMemoryUserRepo()
	return credential.NewStore(repo, credential.Options{BcryptCost: bcrypt.MinCost}), repo
}

func TestCreateSuperuser_CreatesElevatedAccount(t *testing.T) {
	store, repo := newStore()
	var out bytes.Buffer

	err := createSuperuser(context.Background(), store, []string{
		"--email", " Root@Example.com ", "--password", "rootpass", "--given-name", "Ada",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "root@example.com")

	u, err := repo.GetByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsElevated)
	assert.True(t, u.IsActive)
	assert.Equal(t, "Ada", u.GivenName)
}

func TestCreateSuperuser_PasswordFromEnv(t *testing.T) {
	t.Setenv("SUPERUSER_PASSWORD", "fromenv1")
	store, _ := newStore()

	require.NoError(t, createSuperuser(context.Background(), store, []string{"--email", "a@x.com"}, &bytes.Buffer{}))
	_, err := store.Verify(context.Background(), "a@x.com", "fromenv1")
	assert.NoError(t, err)
}

func TestCreateSuperuser_Errors(t *testing.T) {
	t.Setenv("SUPERUSER_PASSWORD", "")
	store, _ := newStore()
	ctx := context.Background()

	assert.ErrorContains(t, createSuperuser(ctx, store, []string{"--password", "secret1"}, &bytes.Buffer{}), "--email")
	assert.ErrorContains(t, createSuperuser(ctx, store, []string{"--email", "a@x.com"}, &bytes.Buffer{}), "password")
	assert.ErrorIs(t, createSuperuser(ctx, store, []string{"--email", "a@x.com", "--password", "123"}, &bytes.Buffer{}), credential.ErrWeakSecret)
	assert.ErrorIs(t, createSuperuser(ctx, store, []string{"--help"}, &bytes.Buffer{}), pflag.ErrHelp)

	require.NoError(t, createSuperuser(ctx, store, []string{"--email", "a@x.com", "--password", "secret1"}, &bytes.Buffer{}))
	assert.ErrorIs(t, createSuperuser(ctx, store, []string{"--email", "a@x.com", "--password", "secret1"}, &bytes.Buffer{}), credential.ErrDuplicateIdentity)
}
