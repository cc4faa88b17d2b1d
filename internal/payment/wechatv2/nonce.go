package wechatv2

import (
	"crypto/rand"
	"math/big"
)

const nonceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const defaultNonceLength = 32

// NonceString 生成指定长度的随机字符串（字母与数字）
func NonceString(length int) string {
	if length <= 0 {
		length = defaultNonceLength
	}
	alphabetSize := big.NewInt(int64(len(nonceAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		index, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand 不可用属于运行环境故障
			panic(err)
		}
		buf[i] = nonceAlphabet[index.Int64()]
	}
	return string(buf)
}
