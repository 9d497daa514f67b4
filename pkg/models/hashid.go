package models

import (
	"fmt"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

const paymentHashPrefix = "pm-"

var paymentHasher *hashids.HashID

func init() {
	data := hashids.NewData()
	data.Salt = "payment"
	data.MinLength = 6
	hasher, err := hashids.NewWithData(data)
	if err != nil {
		panic("failed to build payment hashid: " + err.Error())
	}
	paymentHasher = hasher
}

// EncodePaymentID 编码数据库ID为对外HashID
func EncodePaymentID(id uint) string {
	encoded, err := paymentHasher.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return ""
	}
	return paymentHashPrefix + encoded
}

// DecodePaymentHashID 解码对外HashID获取数据库ID
func DecodePaymentHashID(hashID string) (uint, error) {
	raw, ok := strings.CutPrefix(hashID, paymentHashPrefix)
	if !ok {
		return 0, fmt.Errorf("unexpected hash ID prefix: %s", hashID)
	}
	ids, err := paymentHasher.DecodeInt64WithError(raw)
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("unexpected hash ID payload: %s", hashID)
	}
	return uint(ids[0]), nil
}
