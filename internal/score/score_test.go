package score

import "testing"

func TestCompute(t *testing.T) {
	testCases := []struct {
		name     string
		in       Input
		expected int
	}{
		{
			name:     "failure scores zero",
			in:       Input{Successful: false, GuardrailPassed: true, TokensUsed: 1, MaxTokens: 1000, LatencyMs: 1},
			expected: 0,
		},
		{
			name:     "all bonuses",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 100, MaxTokens: 1000, LatencyMs: 500},
			expected: 100,
		},
		{
			name:     "base only",
			in:       Input{Successful: true, GuardrailPassed: false, TokensUsed: 1000, MaxTokens: 1000, LatencyMs: 5000},
			expected: 70,
		},
		{
			name:     "slow response loses latency bonus",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 100, MaxTokens: 1000, LatencyMs: 3000},
			expected: 90,
		},
		{
			name:     "latency just under threshold",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 100, MaxTokens: 1000, LatencyMs: 2999},
			expected: 100,
		},
		{
			name:     "tokens used at 80 percent exactly gets no bonus",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 800, MaxTokens: 1000, LatencyMs: 100},
			expected: 90,
		},
		{
			name:     "tokens used just under 80 percent",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 799, MaxTokens: 1000, LatencyMs: 100},
			expected: 100,
		},
		{
			name:     "tokens used beyond max loses the bonus",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 1200, MaxTokens: 1000, LatencyMs: 100},
			expected: 90,
		},
		{
			name:     "zero max tokens gives no token bonus",
			in:       Input{Successful: true, GuardrailPassed: true, TokensUsed: 0, MaxTokens: 0, LatencyMs: 100},
			expected: 90,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compute(tc.in); got != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	in := Input{Successful: true, GuardrailPassed: true, TokensUsed: 42, MaxTokens: 1024, LatencyMs: 1200}
	first := Compute(in)
	for i := 0; i < 10; i++ {
		if got := Compute(in); got != first {
			t.Fatalf("score changed between runs: %d vs %d", first, got)
		}
	}
}
