package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(context.Context, string, string) (string, error) {
	p.calls++
	return p.reply, p.err
}

func TestChainFirstProviderWins(t *testing.T) {
	primary := &stubProvider{name: "primary", reply: "ok"}
	backup := &stubProvider{name: "backup", reply: "backup"}
	chain := NewChain(time.Second, primary, backup)

	got, err := chain.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Zero(t, backup.calls)
}

func TestChainFallsBackOnError(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("rate limited")}
	backup := &stubProvider{name: "backup", reply: "from backup"}
	chain := NewChain(time.Second, primary, backup)

	got, err := chain.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "from backup", got)
	assert.Equal(t, 1, primary.calls)
}

func TestChainFallsBackOnEmptyReply(t *testing.T) {
	primary := &stubProvider{name: "primary", reply: ""}
	backup := &stubProvider{name: "backup", reply: "non-empty"}
	chain := NewChain(time.Second, primary, backup)

	got, err := chain.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "non-empty", got)
}

func TestChainAllFailReturnsLastError(t *testing.T) {
	errBackup := errors.New("backup down")
	chain := NewChain(time.Second,
		&stubProvider{name: "primary", err: errors.New("primary down")},
		&stubProvider{name: "backup", err: errBackup},
	)

	_, err := chain.Generate(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, errBackup)
}

func TestChainNoProviders(t *testing.T) {
	chain := NewChain(time.Second)
	_, err := chain.Generate(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrNoProvider)
}

// blockingProvider 挂起到上下文取消为止，模拟无响应的供应商
type blockingProvider struct{}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) Generate(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChainTimesOutBlockedProvider(t *testing.T) {
	backup := &stubProvider{name: "backup", reply: "from backup"}
	chain := NewChain(50*time.Millisecond, &blockingProvider{}, backup)

	start := time.Now()
	got, err := chain.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "from backup", got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestChainAllBlockedReturnsDeadlineError(t *testing.T) {
	chain := NewChain(50*time.Millisecond, &blockingProvider{})

	start := time.Now()
	_, err := chain.Generate(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backup := &stubProvider{name: "backup", reply: "x"}
	chain := NewChain(time.Second,
		&stubProvider{name: "primary", err: errors.New("boom")},
		backup,
	)

	_, err := chain.Generate(ctx, "sys", "user")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, backup.calls)
}
