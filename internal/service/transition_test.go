package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

func TestPermissivePolicyAllowsAnyValidTarget(t *testing.T) {
	policy := PermissivePolicy{}
	for _, from := range domain.Statuses() {
		for _, to := range domain.Statuses() {
			assert.True(t, policy.Allowed(from.ID, to.ID), "from %s to %s", from.Name, to.Name)
		}
	}
	assert.False(t, policy.Allowed(domain.StatusSubmitted, domain.StatusID(42)))
}

func TestStrictPolicyGraph(t *testing.T) {
	policy := StrictPolicy{}
	tests := []struct {
		name    string
		from    domain.StatusID
		to      domain.StatusID
		allowed bool
	}{
		{"submitted to in-progress", domain.StatusSubmitted, domain.StatusInProgress, true},
		{"submitted to assigned", domain.StatusSubmitted, domain.StatusAssigned, true},
		{"submitted to resolved", domain.StatusSubmitted, domain.StatusResolved, false},
		{"in-progress to assigned", domain.StatusInProgress, domain.StatusAssigned, true},
		{"in-progress to closed", domain.StatusInProgress, domain.StatusClosed, false},
		{"assigned to resolved", domain.StatusAssigned, domain.StatusResolved, true},
		{"assigned to rejected", domain.StatusAssigned, domain.StatusRejected, true},
		{"resolved to closed", domain.StatusResolved, domain.StatusClosed, true},
		{"resolved to submitted", domain.StatusResolved, domain.StatusSubmitted, false},
		{"closed is terminal", domain.StatusClosed, domain.StatusResolved, false},
		{"rejected is terminal", domain.StatusRejected, domain.StatusClosed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, policy.Allowed(tt.from, tt.to))
		})
	}
}

func TestPolicyFromConfig(t *testing.T) {
	assert.IsType(t, StrictPolicy{}, PolicyFromConfig(true))
	assert.IsType(t, PermissivePolicy{}, PolicyFromConfig(false))
}
