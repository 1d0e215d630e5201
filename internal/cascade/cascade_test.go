package cascade

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimurillof/chat-agent-service/internal/provider"
)

type fakeGateway struct {
	responses map[string]*provider.Result
	errors    map[string]error
	calls     []string
}

func (f *fakeGateway) Generate(_ context.Context, model string, _ *provider.GenerateRequest) (*provider.Result, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.errors[model]; ok {
		return nil, err
	}
	if resp, ok := f.responses[model]; ok {
		return resp, nil
	}
	return nil, errors.New("no response configured")
}

func (f *fakeGateway) GenerateStream(_ context.Context, model string, _ *provider.GenerateRequest) (*provider.Stream, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.errors[model]; ok {
		return nil, err
	}
	return nil, errors.New("no stream configured")
}

func overloaded() error {
	return &provider.APIError{StatusCode: http.StatusServiceUnavailable, Status: "UNAVAILABLE", Message: "The model is overloaded"}
}

func textResult(text string) *provider.Result {
	return &provider.Result{Candidates: []provider.Candidate{{
		Content: provider.Content{Role: provider.RoleModel, Parts: []provider.Part{{Text: text}}},
	}}}
}

func chains() map[string][]string {
	return map[string][]string{
		"primary": {"primary", "secondary", "tertiary"},
	}
}

func TestInvokeFallsBackAcrossTiers(t *testing.T) {
	gw := &fakeGateway{
		errors:    map[string]error{"primary": overloaded(), "secondary": overloaded()},
		responses: map[string]*provider.Result{"tertiary": textResult("ok")},
	}
	sel, err := NewSelector(gw, chains(), slog.Default())
	require.NoError(t, err)

	result, used, err := sel.Invoke(context.Background(), "primary", &provider.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "tertiary", used)
	assert.Equal(t, "ok", result.Text())
	assert.Equal(t, []string{"primary", "secondary", "tertiary"}, gw.calls)
}

func TestInvokeFatalErrorPropagatesImmediately(t *testing.T) {
	fatal := &provider.APIError{StatusCode: http.StatusBadRequest, Status: "INVALID_ARGUMENT", Message: "bad request"}
	gw := &fakeGateway{
		errors:    map[string]error{"primary": fatal},
		responses: map[string]*provider.Result{"secondary": textResult("never")},
	}
	sel, err := NewSelector(gw, chains(), slog.Default())
	require.NoError(t, err)

	_, _, err = sel.Invoke(context.Background(), "primary", &provider.GenerateRequest{})
	require.Error(t, err)
	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"primary"}, gw.calls, "fatal error must not exhaust the cascade")
}

func TestInvokeAllTiersExhausted(t *testing.T) {
	gw := &fakeGateway{
		errors: map[string]error{
			"primary":   overloaded(),
			"secondary": overloaded(),
			"tertiary":  overloaded(),
		},
	}
	sel, err := NewSelector(gw, chains(), slog.Default())
	require.NoError(t, err)

	_, _, err = sel.Invoke(context.Background(), "primary", &provider.GenerateRequest{})
	assert.ErrorIs(t, err, ErrAllTiersExhausted)
	assert.Len(t, gw.calls, 3)
}

func TestChainDefaultsToSelf(t *testing.T) {
	sel, err := NewSelector(&fakeGateway{}, chains(), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"unlisted-model"}, sel.Chain("unlisted-model"))
}

func TestNewSelectorRejectsBadChains(t *testing.T) {
	_, err := NewSelector(&fakeGateway{}, map[string][]string{"a": {}}, slog.Default())
	assert.Error(t, err)

	_, err = NewSelector(&fakeGateway{}, map[string][]string{"a": {"x", "y", "x"}}, slog.Default())
	assert.Error(t, err)
}
