package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavehub/internal/domain/leave"
)

func TestWriteBalancePDF(t *testing.T) {
	views := []leave.BalanceView{
		{
			LeaveAccount: leave.LeaveAccount{
				UserID:      "emp-1",
				LeaveTypeID: "type-1",
				Year:        2026,
				Allocated:   decimal.NewFromInt(20),
				Used:        decimal.NewFromInt(4),
			},
			Balance: decimal.NewFromInt(16),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBalancePDF(&buf, 2026, views))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output should be a PDF document")
	assert.Greater(t, buf.Len(), 500)
}

func TestWriteBalancePDFEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBalancePDF(&buf, 2026, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
