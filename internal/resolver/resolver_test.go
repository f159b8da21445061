package resolver

import (
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/halint/internal/extractor"
	"github.com/conneroisu/halint/internal/registry"
	"github.com/conneroisu/halint/internal/report"
)

const storageEntityJSON = `{
  "data": {
    "entities": [
      {"entity_id": "light.living_room", "platform": "hue", "disabled_by": null},
      {"entity_id": "light.old_lamp", "platform": "hue", "disabled_by": "user"}
    ]
  }
}`

const storageDeviceJSON = `{"data": {"devices": [{"id": "dev1", "name": "Bridge"}]}}`

const storageAreaJSON = `{"data": {"areas": [{"id": "living_room", "name": "Living Room"}]}}`

func loadSnapshot(t *testing.T, files map[string]string) *registry.Snapshot {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	snapshot, err := registry.Load(dir)
	require.NoError(t, err)

	return snapshot
}

func fullSnapshot(t *testing.T) *registry.Snapshot {
	return loadSnapshot(t, map[string]string{
		registry.EntityRegistryFile: storageEntityJSON,
		registry.DeviceRegistryFile: storageDeviceJSON,
		registry.AreaRegistryFile:   storageAreaJSON,
	})
}

func tokens(items ...extractor.Token) iter.Seq[extractor.Token] {
	return func(yield func(extractor.Token) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

func entityToken(raw, file string, line int, context extractor.Context) extractor.Token {
	return extractor.Token{
		Raw:     raw,
		Kind:    registry.RefEntity,
		File:    file,
		Line:    line,
		Context: context,
	}
}

func TestResolveKnownEnabledEntity(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.living_room", "a.yaml", 3, extractor.ContextDirect),
	))

	assert.Empty(t, findings)
}

func TestResolveUnknownEntityIsError(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.gone", "automations.yaml", 7, extractor.ContextDirect),
	))

	require.Len(t, findings, 1)
	assert.Equal(t, report.SeverityError, findings[0].Severity)
	assert.Equal(t, report.CategoryUnknownReference, findings[0].Category)
	assert.Equal(t, "automations.yaml", findings[0].File)
	assert.Equal(t, 7, findings[0].Line)
	assert.Contains(t, findings[0].Message, `"light.gone"`)
}

func TestResolveUnknownServiceTargetIsError(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.gone", "a.yaml", 2, extractor.ContextTarget),
	))

	require.Len(t, findings, 1)
	assert.Equal(t, report.SeverityError, findings[0].Severity)
}

func TestResolveDisabledEntityIsWarning(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.old_lamp", "scenes.yaml", 5, extractor.ContextDirect),
	))

	require.Len(t, findings, 1)
	assert.Equal(t, report.SeverityWarning, findings[0].Severity)
	assert.Equal(t, report.CategoryDisabledEntity, findings[0].Category)
	assert.Contains(t, findings[0].Message, "disabled_by: user")
}

func TestResolveUnknownTemplateReferenceIsWarning(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("sensor.computed", "sensors.yaml", 9, extractor.ContextTemplate),
	))

	require.Len(t, findings, 1)
	assert.Equal(t, report.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "template")
}

func TestResolveTemplateUnknownBlocksEscalates(t *testing.T) {
	r := New(fullSnapshot(t), Options{TemplateUnknownBlocks: true})

	findings := r.Resolve(tokens(
		entityToken("sensor.computed", "sensors.yaml", 9, extractor.ContextTemplate),
	))

	require.Len(t, findings, 1)
	assert.Equal(t, report.SeverityError, findings[0].Severity)
}

func TestResolveKnownEntityInTemplate(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.living_room", "sensors.yaml", 2, extractor.ContextTemplate),
	))

	assert.Empty(t, findings)
}

func TestResolveDeviceAndAreaReferences(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		extractor.Token{Raw: "dev1", Kind: registry.RefDevice, File: "a.yaml", Line: 1, Context: extractor.ContextDirect},
		extractor.Token{Raw: "ghost", Kind: registry.RefDevice, File: "a.yaml", Line: 2, Context: extractor.ContextDirect},
		extractor.Token{Raw: "living_room", Kind: registry.RefArea, File: "a.yaml", Line: 3, Context: extractor.ContextDirect},
		extractor.Token{Raw: "attic", Kind: registry.RefArea, File: "a.yaml", Line: 4, Context: extractor.ContextDirect},
	))

	require.Len(t, findings, 2)
	assert.Contains(t, findings[0].Message, `device "ghost"`)
	assert.Contains(t, findings[1].Message, `area "attic"`)
}

func TestResolveSuppressesUnloadedKinds(t *testing.T) {
	// Only the entity registry is present; device and area unknowns must be
	// suppressed instead of reported.
	r := New(loadSnapshot(t, map[string]string{
		registry.EntityRegistryFile: storageEntityJSON,
	}), Options{})

	findings := r.Resolve(tokens(
		extractor.Token{Raw: "ghost", Kind: registry.RefDevice, File: "a.yaml", Line: 1, Context: extractor.ContextDirect},
		extractor.Token{Raw: "attic", Kind: registry.RefArea, File: "a.yaml", Line: 2, Context: extractor.ContextDirect},
		entityToken("light.gone", "a.yaml", 3, extractor.ContextDirect),
	))

	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "light.gone")
}

func TestResolveDeduplicatesPerFile(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.gone", "a.yaml", 3, extractor.ContextDirect),
		entityToken("light.gone", "a.yaml", 8, extractor.ContextDirect),
		entityToken("light.gone", "b.yaml", 2, extractor.ContextDirect),
	))

	// Once per file, not once per occurrence.
	require.Len(t, findings, 2)
	assert.Equal(t, "a.yaml", findings[0].File)
	assert.Equal(t, "b.yaml", findings[1].File)
}

func TestResolveDirectAndTemplateAreSeparateFindings(t *testing.T) {
	r := New(fullSnapshot(t), Options{})

	findings := r.Resolve(tokens(
		entityToken("light.gone", "a.yaml", 3, extractor.ContextDirect),
		entityToken("light.gone", "a.yaml", 8, extractor.ContextTemplate),
	))

	require.Len(t, findings, 2)
	assert.Equal(t, report.SeverityError, findings[0].Severity)
	assert.Equal(t, report.SeverityWarning, findings[1].Severity)
}

func TestResolveOrderIndependent(t *testing.T) {
	forward := New(fullSnapshot(t), Options{}).Resolve(tokens(
		entityToken("light.gone", "a.yaml", 3, extractor.ContextDirect),
		entityToken("light.old_lamp", "a.yaml", 5, extractor.ContextDirect),
	))
	backward := New(fullSnapshot(t), Options{}).Resolve(tokens(
		entityToken("light.old_lamp", "a.yaml", 5, extractor.ContextDirect),
		entityToken("light.gone", "a.yaml", 3, extractor.ContextDirect),
	))

	assert.ElementsMatch(t, forward, backward)
}
