package wechatv2

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign 计算签名：剔除空值与 sign 字段，按键名字典序拼接
// k=v&...&key=<密钥>，MD5 后取大写十六进制。
func Sign(fields Values, key string) string {
	keys := make([]string, 0, len(fields))
	for name, value := range fields {
		if value == "" || name == FieldSign {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, name := range keys {
		builder.WriteString(name)
		builder.WriteByte('=')
		builder.WriteString(fields[name])
		builder.WriteByte('&')
	}
	builder.WriteString("key=")
	builder.WriteString(key)

	sum := md5.Sum([]byte(builder.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify 重算签名并与 sign 字段比对。
// 输入不合法（缺失或为空的 sign）视为不匹配，不报错。
func Verify(fields Values, key string) bool {
	claimed := fields.Get(FieldSign)
	if claimed == "" {
		return false
	}
	expected := Sign(fields, key)
	return subtle.ConstantTimeCompare([]byte(claimed), []byte(expected)) == 1
}
