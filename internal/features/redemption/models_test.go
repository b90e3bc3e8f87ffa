package redemption

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/boostly/internal/common"
)

func TestVoucherValue(t *testing.T) {
	assert.Equal(t, 200, VoucherValue(40))
	assert.Equal(t, 5, VoucherValue(1))
}

func TestCheckRedeemable(t *testing.T) {
	tests := []struct {
		name       string
		redeemable int
		credits    int
		code       string
	}{
		{"всё доступное", 40, 40, ""},
		{"часть", 40, 10, ""},
		{"пусто", 0, 1, common.CodeNoRedeemableCredits},
		{"минус после сгорания", -20, 1, common.CodeNoRedeemableCredits},
		{"больше доступного", 40, 41, common.CodeExceedsRedeemable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRedeemable(tt.redeemable, tt.credits)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, common.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCheckRedeemableReportsAvailable(t *testing.T) {
	v, ok := common.AsViolation(CheckRedeemable(40, 41))
	assert.True(t, ok)
	assert.Contains(t, v.Detail, "40 кредитов")
}

func TestCheckCredits(t *testing.T) {
	assert.NoError(t, CheckCredits(1))
	assert.True(t, common.HasCode(CheckCredits(0), common.CodeInvalidCredits))
	assert.True(t, common.HasCode(CheckCredits(-5), common.CodeInvalidCredits))
}
