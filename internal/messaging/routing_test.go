package messaging_test

import (
	"testing"

	"github.com/carsonjc04/Hive-Engine/internal/messaging"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"hr.employee.terminated", "hr.employee.terminated", true},
		{"hr.employee.*", "hr.employee.terminated", true},
		{"hr.employee.*", "hr.employee.a.b", false},
		{"hr.employee.*", "hr.employee", false},
		{"hr.employee.#", "hr.employee.terminated", true},
		{"hr.employee.#", "hr.employee.a.b", true},
		{"hr.employee.#", "hr.employee", true},
		{"#", "anything.at.all", true},
		{"hr.#.terminated", "hr.employee.terminated", true},
		{"hr.#.terminated", "hr.terminated", true},
		{"hr.*.terminated", "hr.contractor.terminated", true},
		{"hr.employee.hired", "hr.employee.terminated", false},
		{"hr.employee.*", "billing.invoice.paid", false},
		{"hr.employee.terminated", "hr.employee.TERMINATED", false},
		{"HR.#", "hr.employee.terminated", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, messaging.Match(tt.pattern, tt.key))
		})
	}
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, messaging.ValidatePattern("hr.employee.*"))
	assert.NoError(t, messaging.ValidatePattern("hr.#"))
	assert.Error(t, messaging.ValidatePattern(""))
	assert.Error(t, messaging.ValidatePattern("hr..employee"))
	assert.Error(t, messaging.ValidatePattern("hr.emp*"))
}
