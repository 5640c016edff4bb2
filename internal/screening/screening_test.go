package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreen(t *testing.T) {
	t.Run("no alert for healthy measurements", func(t *testing.T) {
		assert.Empty(t, Screen(12.0, 85.0, 14.0))
	})

	t.Run("severe risk below 11.5 cm MUAC", func(t *testing.T) {
		alert := Screen(9.0, 75.0, 11.0)
		assert.Contains(t, alert, "SEVERE malnutrition risk")
	})

	t.Run("high risk below 12.5 cm MUAC", func(t *testing.T) {
		alert := Screen(10.0, 80.0, 12.0)
		assert.Contains(t, alert, "HIGH malnutrition risk")
		assert.NotContains(t, alert, "SEVERE")
	})

	t.Run("boundary values do not alert", func(t *testing.T) {
		assert.Empty(t, Screen(5.0, 60.0, 12.5))
	})

	t.Run("low weight note", func(t *testing.T) {
		alert := Screen(4.5, 55.0, 13.0)
		assert.Contains(t, alert, "Low weight detected")
	})

	t.Run("combined alerts join with a period", func(t *testing.T) {
		alert := Screen(4.0, 50.0, 11.0)
		assert.Contains(t, alert, "SEVERE malnutrition risk")
		assert.Contains(t, alert, "Low weight detected")
		assert.Contains(t, alert, ". ")
	})
}
