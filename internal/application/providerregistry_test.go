package application_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

func TestProviderRegistry_GetReturnsRegisteredProvider(t *testing.T) {
	jira := &mockProvider{name: model.ProviderJira}
	registry := application.NewProviderRegistry(jira)

	assert.Same(t, jira, registry.Get(model.ProviderJira))
	assert.Nil(t, registry.Get(model.ProviderLinear))
}

func TestProviderRegistry_ReplaceSwapsProvider(t *testing.T) {
	original := &mockProvider{name: model.ProviderJira}
	replacement := &mockProvider{name: model.ProviderJira}

	registry := application.NewProviderRegistry(original)
	registry.Replace(replacement)

	assert.Same(t, replacement, registry.Get(model.ProviderJira))
}

func TestProviderRegistry_HasAfterReplace(t *testing.T) {
	registry := application.NewProviderRegistry()
	require.False(t, registry.Has(model.ProviderJira))

	registry.Replace(&mockProvider{name: model.ProviderJira})
	assert.True(t, registry.Has(model.ProviderJira))
}

func TestProviderRegistry_NamesSorted(t *testing.T) {
	registry := application.NewProviderRegistry(
		&mockProvider{name: model.ProviderLinear},
		&mockProvider{name: model.ProviderJira},
		&mockProvider{name: model.ProviderAsana},
	)

	assert.Equal(t, []model.Provider{model.ProviderAsana, model.ProviderJira, model.ProviderLinear}, registry.Names())
}

func TestProviderRegistry_ConcurrentGetReplaceSafety(t *testing.T) {
	p1 := &mockProvider{name: model.ProviderJira}
	p2 := &mockProvider{name: model.ProviderJira}
	registry := application.NewProviderRegistry(p1)

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for range goroutines {
		go func() {
			defer wg.Done()
			assert.NotNil(t, registry.Get(model.ProviderJira))
		}()
		go func() {
			defer wg.Done()
			registry.Replace(p2)
		}()
	}

	wg.Wait()
	assert.Same(t, p2, registry.Get(model.ProviderJira))
}
