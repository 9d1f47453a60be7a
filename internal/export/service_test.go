package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBatchSummaryXLSX(t *testing.T) {
	s := NewService(nil)
	rows := []BatchRow{
		{
			Document:   "/in/msa.pdf",
			HashHex:    "abc123",
			JobID:      "7f9c0f1e-0000-0000-0000-000000000001",
			Status:     "POPULATED",
			OutputPath: "/out/msa.txt",
			Duration:   1500 * time.Millisecond,
		},
		{
			Document: "/in/nda.pdf",
			HashHex:  "def456",
			JobID:    "7f9c0f1e-0000-0000-0000-000000000002",
			Status:   "AWAITING_REVIEW",
			Problems: "amount: not a currency value",
		},
	}

	raw, err := s.BatchSummaryXLSX(rows)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Batch")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Document", got[0][0])
	assert.Equal(t, "/in/msa.pdf", got[1][0])
	assert.Equal(t, "POPULATED", got[1][3])
	assert.Equal(t, "1500", got[1][6])
	assert.Equal(t, "amount: not a currency value", got[2][4])
}

func TestBatchSummaryXLSX_Empty(t *testing.T) {
	raw, err := NewService(nil).BatchSummaryXLSX(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
