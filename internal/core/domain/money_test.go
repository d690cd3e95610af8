package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRevenue(t *testing.T) {
	tests := []struct {
		name        string
		gross       Money
		bps         int
		creatorNet  Money
		platformNet Money
	}{
		{"ten dollars at 85 percent", 1000, 8500, 850, 150},
		{"twenty five dollars at 85 percent", 2500, 8500, 2125, 375},
		{"one cent rounds to creator", 1, 8500, 1, 0},
		{"two cents", 2, 8500, 2, 0},
		{"odd amount", 999, 8500, 849, 150},
		{"full share", 1000, 10000, 1000, 0},
		{"zero share", 1000, 0, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator, platform := SplitRevenue(tt.gross, tt.bps)
			assert.Equal(t, tt.creatorNet, creator)
			assert.Equal(t, tt.platformNet, platform)
		})
	}
}

func TestSplitRevenueSumInvariant(t *testing.T) {
	// The two parts must sum back to gross exactly for every amount.
	for gross := Money(1); gross <= 10000; gross++ {
		creator, platform := SplitRevenue(gross, 8500)
		assert.Equal(t, gross, creator+platform, "gross=%d", gross)
		assert.GreaterOrEqual(t, int64(creator), int64(0))
		assert.GreaterOrEqual(t, int64(platform), int64(0))
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "$12.34", Money(1234).String())
	assert.Equal(t, "$0.05", Money(5).String())
	assert.Equal(t, "$0.00", Money(0).String())
	assert.Equal(t, "-$1.50", Money(-150).String())
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(MethodPayPal))
	assert.True(t, ValidPaymentMethod(MethodCashApp))
	assert.True(t, ValidPaymentMethod(MethodOther))
	assert.False(t, ValidPaymentMethod("bitcoin"))
	assert.False(t, ValidPaymentMethod(""))
}

func TestValidSceneLayout(t *testing.T) {
	assert.True(t, ValidSceneLayout(SceneGrid))
	assert.True(t, ValidSceneLayout(ScenePIP))
	assert.False(t, ValidSceneLayout("cinema"))
	assert.False(t, ValidSceneLayout(""))
}
