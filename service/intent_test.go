package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsmind-ai/kb-gateway/types"
)

func TestKeywordIntentClassifier(t *testing.T) {
	c := NewKeywordIntentClassifier()

	t.Run("database query", func(t *testing.T) {
		intent := c.Classify("PostgreSQL says remaining connection slots are reserved")
		assert.Equal(t, string(types.CategoryDatabase), intent.Label)
		assert.GreaterOrEqual(t, intent.Confidence, 0.5)
	})

	t.Run("kubernetes query", func(t *testing.T) {
		intent := c.Classify("pod stuck in CrashLoopBackOff, kubectl logs show exit code 1")
		assert.Equal(t, string(types.CategoryKubernetes), intent.Label)
	})

	t.Run("no keyword match", func(t *testing.T) {
		intent := c.Classify("the thing is broken somehow")
		assert.Equal(t, types.IntentUnknown, intent.Label)
		assert.InDelta(t, 0.25, intent.Confidence, 1e-9)
	})

	t.Run("confidence grows with hits", func(t *testing.T) {
		one := c.Classify("mysql is down")
		many := c.Classify("mysql deadlock in the connection pool of the database")
		assert.Equal(t, one.Label, many.Label)
		assert.Greater(t, many.Confidence, one.Confidence)
		assert.LessOrEqual(t, many.Confidence, 0.9)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		query := "tls certificate handshake timeout behind the load balancer"
		first := c.Classify(query)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.Classify(query))
		}
	})
}
