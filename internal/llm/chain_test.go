package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name    string
	content string
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, req Request) (Response, error) {
	s.calls++
	if s.err != nil {
		return Response{}, s.err
	}
	return Response{Content: s.content, TokensUsed: 7}, nil
}

func TestChain_Empty(t *testing.T) {
	c := NewChain()
	assert.Equal(t, 0, c.Len())

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestChain_SkipsNilProviders(t *testing.T) {
	p := &stubProvider{name: "a", content: "ok"}
	c := NewChain(nil, p, nil)
	assert.Equal(t, 1, c.Len())
}

func TestChain_FirstSuccessShortCircuits(t *testing.T) {
	first := &stubProvider{name: "a", content: "from a"}
	second := &stubProvider{name: "b", content: "from b"}
	c := NewChain(first, second)

	resp, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from a", resp.Content)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBackOnError(t *testing.T) {
	first := &stubProvider{name: "a", err: errors.New("rate limited")}
	second := &stubProvider{name: "b", content: "from b"}
	c := NewChain(first, second)

	resp, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from b", resp.Content)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChain_AllFailReturnsLastError(t *testing.T) {
	errA := errors.New("a down")
	errB := errors.New("b down")
	c := NewChain(&stubProvider{name: "a", err: errA}, &stubProvider{name: "b", err: errB})

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, errB)
}
