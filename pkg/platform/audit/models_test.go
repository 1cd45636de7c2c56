package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventTreeTransferred.Category())
	assert.Equal(t, CategoryCompliance, EventTreeRegistered.Category())
	assert.Equal(t, CategoryOperations, EventTreeUpdated.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("unknown").Category())
}
