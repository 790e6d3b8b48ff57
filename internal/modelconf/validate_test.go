package modelconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/modelbench/internal/storage/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestValidateRecordBounds(t *testing.T) {
	testCases := []struct {
		name  string
		rec   models.ConfigRecord
		field string // empty means valid
	}{
		{"all unset", models.ConfigRecord{}, ""},
		{"temperature low edge", models.ConfigRecord{Temperature: fptr(0)}, ""},
		{"temperature high edge", models.ConfigRecord{Temperature: fptr(2)}, ""},
		{"temperature too high", models.ConfigRecord{Temperature: fptr(2.1)}, "temperature"},
		{"temperature negative", models.ConfigRecord{Temperature: fptr(-0.1)}, "temperature"},
		{"top_p edge", models.ConfigRecord{TopP: fptr(1)}, ""},
		{"top_p too high", models.ConfigRecord{TopP: fptr(1.01)}, "top_p"},
		{"max_tokens floor", models.ConfigRecord{MaxTokens: iptr(1)}, ""},
		{"max_tokens zero", models.ConfigRecord{MaxTokens: iptr(0)}, "max_tokens"},
		{"max_tokens ceiling", models.ConfigRecord{MaxTokens: iptr(100001)}, "max_tokens"},
		{"frequency penalty edge", models.ConfigRecord{FrequencyPenalty: fptr(-2)}, ""},
		{"frequency penalty below", models.ConfigRecord{FrequencyPenalty: fptr(-2.5)}, "frequency_penalty"},
		{"presence penalty above", models.ConfigRecord{PresencePenalty: fptr(2.5)}, "presence_penalty"},
		{"cost ceiling negative", models.ConfigRecord{MaxCostPerRequest: fptr(-0.01)}, "max_cost_per_request"},
		{"cost ceiling zero", models.ConfigRecord{MaxCostPerRequest: fptr(0)}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRecord(&tc.rec)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var invalid *InvalidOverrideError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestValidateTierScope(t *testing.T) {
	assert.NoError(t, ValidateTierScope(models.TierGlobal, ""))
	assert.Error(t, ValidateTierScope(models.TierGlobal, "gpt-4"))

	assert.NoError(t, ValidateTierScope(models.TierModel, "gpt-4"))
	assert.Error(t, ValidateTierScope(models.TierModel, ""))
	assert.Error(t, ValidateTierScope(models.TierModel, "   "))

	assert.NoError(t, ValidateTierScope(models.TierUseCase, "summarization"))
	assert.Error(t, ValidateTierScope(models.TierUseCase, ""))

	// Runtime overrides are never persisted as records
	assert.Error(t, ValidateTierScope(models.TierRuntime, ""))
	assert.Error(t, ValidateTierScope(models.TierRuntime, "anything"))
}
