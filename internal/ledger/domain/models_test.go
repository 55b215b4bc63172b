package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionType_Valid(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, typ.Valid(), string(typ))
	}
	assert.False(t, TransactionType("").Valid())
	assert.False(t, TransactionType("transfer").Valid())
}

func TestTransactionType_Dispatch(t *testing.T) {
	tests := []struct {
		typ       TransactionType
		sign      SignRule
		bucket    LifetimeBucket
		direction TierDirection
	}{
		{TypeEarn, SignCredit, BucketEarned, TierRiseOnly},
		{TypeBonus, SignCredit, BucketEarned, TierRiseOnly},
		{TypeRedeem, SignDebit, BucketRedeemed, TierHold},
		{TypeExpiration, SignDebit, BucketRedeemed, TierHold},
		{TypeAdjustment, SignAny, BucketEarned, TierRiseOrFall},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.sign, tt.typ.SignRule())
			assert.Equal(t, tt.bucket, tt.typ.Bucket())
			assert.Equal(t, tt.direction, tt.typ.TierDirection())
		})
	}
}
