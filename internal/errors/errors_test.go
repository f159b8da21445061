package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorError(t *testing.T) {
	err := NewSyntaxError(ErrCodeYAMLSyntax, "unexpected mapping", nil).
		WithLocation("configuration.yaml", 12, 3)

	message := err.Error()
	assert.Contains(t, message, "[ERR_YAML_SYNTAX]")
	assert.Contains(t, message, "configuration.yaml:12:3")
	assert.Contains(t, message, "unexpected mapping")
}

func TestValidationErrorErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("underlying parse failure")
	err := NewEncodingError("file must be UTF-8 encoded", cause).
		WithLocation("automations.yaml", 4, 0)

	message := err.Error()
	assert.Contains(t, message, "automations.yaml:4")
	assert.NotContains(t, message, "automations.yaml:4:0")
	assert.Contains(t, message, "underlying parse failure")
}

func TestValidationErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("io failure")
	err := NewIOError("cannot read file", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestValidationErrorIs(t *testing.T) {
	err := NewIncludeError(ErrCodeIncludeCycle, "include cycle detected", nil)

	assert.True(t, errors.Is(err, &ValidationError{Kind: KindInclude}))
	assert.True(t, errors.Is(err, &ValidationError{Kind: KindInclude, Code: ErrCodeIncludeCycle}))
	assert.False(t, errors.Is(err, &ValidationError{Kind: KindInclude, Code: ErrCodeIncludeMissing}))
	assert.False(t, errors.Is(err, &ValidationError{Kind: KindSyntax}))
}

func TestErrorScopes(t *testing.T) {
	testCases := []struct {
		name     string
		err      *ValidationError
		scope    Scope
		runFatal bool
	}{
		{"syntax", NewSyntaxError(ErrCodeYAMLSyntax, "bad yaml", nil), ScopeFile, false},
		{"encoding", NewEncodingError("bad bytes", nil), ScopeFile, false},
		{"io", NewIOError("unreadable", nil), ScopeFile, false},
		{"include", NewIncludeError(ErrCodeIncludeMissing, "missing", nil), ScopeSection, false},
		{"registry", NewRegistryCorruptError("bad json", nil), ScopeRun, true},
		{"config-not-found", NewConfigurationNotFoundError("config/configuration.yaml"), ScopeRun, true},
		{"internal", NewInternalError("bug", nil), ScopeRun, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.scope, tc.err.Scope)
			assert.Equal(t, tc.runFatal, IsRunFatal(tc.err))
		})
	}
}

func TestIsRunFatalPlainError(t *testing.T) {
	assert.False(t, IsRunFatal(fmt.Errorf("plain error")))
	assert.False(t, IsRunFatal(nil))
}

func TestIsRunFatalWrapped(t *testing.T) {
	err := fmt.Errorf("collecting: %w", NewRegistryCorruptError("bad json", nil))

	assert.True(t, IsRunFatal(err))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindRegistry, KindOf(NewRegistryCorruptError("bad", nil)))
	require.Equal(t, KindSyntax, KindOf(NewSyntaxError(ErrCodeDuplicateKey, "dup", nil)))
	require.Equal(t, KindInternal, KindOf(fmt.Errorf("unclassified")))
}

func TestConfigurationNotFoundCarriesPath(t *testing.T) {
	err := NewConfigurationNotFoundError("/tmp/config/configuration.yaml")

	assert.Equal(t, "/tmp/config/configuration.yaml", err.FilePath)
	assert.Contains(t, err.Error(), "/tmp/config/configuration.yaml")
}
