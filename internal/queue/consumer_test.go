package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/backoffice/internal/logging"
)

func TestFormatAuditLine_Customer(t *testing.T) {
	env, err := NewEnvelope(TypeCustomerAggregated, CustomerAggregatedEvent{
		CustomerID: 3, BookingID: 9, Email: "ana@example.com", Created: true,
		TotalBookings: 1, TotalSpent: "1000", CustomerType: "new", LoyaltyPoints: 1000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)

	line, err := FormatAuditLine(env)
	require.NoError(t, err)
	assert.Contains(t, line, "Customer created")
	assert.Contains(t, line, "customer_id=3")
	assert.Contains(t, line, "points=1000")
}

func TestFormatAuditLine_UnknownType(t *testing.T) {
	env, err := NewEnvelope("something.else", map[string]int{"n": 1})
	require.NoError(t, err)
	line, err := FormatAuditLine(env)
	require.NoError(t, err)
	assert.Contains(t, line, `payload={"n":1}`)
}

func TestConsumer_HandleAppendsLines(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("", dir, logging.Discard())

	for _, num := range []string{"STU20260001", "STU20260002"} {
		env, err := NewEnvelope(TypeStudentCreated, StudentCreatedEvent{StudentNumber: num, Cohort: "FOUNDATION-A"})
		require.NoError(t, err)
		body, err := json.Marshal(env)
		require.NoError(t, err)
		require.NoError(t, c.handle(body))
	}

	data, err := os.ReadFile(filepath.Join(dir, AuditLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "STU20260001")
	assert.Contains(t, string(data), "STU20260002")

	assert.Error(t, c.handle([]byte("not json")))
}
