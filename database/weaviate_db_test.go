package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeaviateClassName(t *testing.T) {
	t.Run("plain names only get capitalized", func(t *testing.T) {
		assert.Equal(t, "Kb_common_database", weaviateClassName("kb_common_database"))
		assert.Equal(t, "Kb_tenant_acme", weaviateClassName("kb_tenant_acme"))
	})

	t.Run("invalid characters are replaced and suffixed", func(t *testing.T) {
		name := weaviateClassName("kb_tenant_acme-corp")
		assert.True(t, strings.HasPrefix(name, "Kb_tenant_acme_corp_"))
	})

	t.Run("distinct raw names never collide", func(t *testing.T) {
		assert.NotEqual(t,
			weaviateClassName("kb_tenant_acme-corp"),
			weaviateClassName("kb_tenant_acme_corp"))
		assert.NotEqual(t,
			weaviateClassName("kb_tenant_acme.corp"),
			weaviateClassName("kb_tenant_acme-corp"))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t,
			weaviateClassName("kb_tenant_acme-corp"),
			weaviateClassName("kb_tenant_acme-corp"))
	})
}
