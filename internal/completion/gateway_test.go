// ABOUTME: Tests for the completion gateway
// ABOUTME: Covers availability, message conversion and typed failures

package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patiochat/patio/internal/dialogue"
)

func TestGateway_UnavailableWithoutKey(t *testing.T) {
	g := NewGateway("", "gpt-3.5-turbo", nil)
	assert.False(t, g.Available())
}

func TestGateway_AvailableWithKey(t *testing.T) {
	g := NewGateway("sk-test", "gpt-3.5-turbo", nil)
	assert.True(t, g.Available())
}

func TestGateway_CallsFailWhenUnavailable(t *testing.T) {
	g := NewGateway("", "gpt-3.5-turbo", nil)
	ctx := context.Background()

	_, err := g.Complete(ctx, "hello", "")
	require.Error(t, err)

	var capErr *CapabilityError
	assert.True(t, errors.As(err, &capErr))

	_, err = g.CompleteConversation(ctx, []dialogue.Turn{{Role: dialogue.RoleUser, Text: "hello"}})
	require.Error(t, err)
	assert.True(t, errors.As(err, &capErr))
}

func TestBuildMessages_RoleMapping(t *testing.T) {
	turns := []dialogue.Turn{
		{Role: dialogue.RoleSystem, Text: "persona"},
		{Role: dialogue.RoleUser, Speaker: "Jane", Text: "Jane: hi"},
		{Role: dialogue.RoleAssistant, Speaker: "Bot", Text: "hello"},
		{Role: dialogue.RoleUser, Speaker: "Jane", Text: "how are you"},
	}

	messages := buildMessages(turns)
	require.Len(t, messages, 4)

	assert.NotNil(t, messages[0].OfSystem)
	assert.NotNil(t, messages[1].OfUser)
	assert.NotNil(t, messages[2].OfAssistant)
	assert.NotNil(t, messages[3].OfUser)
}

func TestCapabilityError_Unwrap(t *testing.T) {
	upstream := errors.New("connection refused")
	err := &CapabilityError{Op: "conversation", Err: upstream}

	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "conversation")
	assert.Contains(t, err.Error(), "connection refused")
}
