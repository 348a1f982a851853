package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Athul-13/tablespot-api/internal/repository/postgres"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/Athul-13/tablespot-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSweeper_Sweep(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()
	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	now := time.Now()
	_, err := repos.RefreshToken.Create(ctx, user.ID, service.HashToken("expired-refresh"), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repos.RefreshToken.Create(ctx, user.ID, service.HashToken("live-refresh"), now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repos.PasswordResetToken.Create(ctx, user.ID, service.HashToken("expired-reset"), now.Add(-time.Minute))
	require.NoError(t, err)

	sweeper := service.NewTokenSweeper(repos.RefreshToken, repos.PasswordResetToken, time.Hour, testutil.DiscardLogger())

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	live, err := repos.RefreshToken.FindByTokenHash(ctx, service.HashToken("live-refresh"))
	require.NoError(t, err)
	assert.NotNil(t, live)

	removed, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestTokenSweeper_RunStopsOnCancel(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	sweeper := service.NewTokenSweeper(repos.RefreshToken, repos.PasswordResetToken, 10*time.Millisecond, testutil.DiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestTokenSweeper_DisabledInterval(t *testing.T) {
	sweeper := service.NewTokenSweeper(nil, nil, 0, testutil.DiscardLogger())

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return immediately")
	}
}
