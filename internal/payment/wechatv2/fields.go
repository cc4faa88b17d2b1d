package wechatv2

import "strconv"

// 协议通用常量
const (
	FieldSign     = "sign"
	SignTypeMD5   = "MD5"
	TradeTypeJS   = "JSAPI"
	ResultSuccess = "SUCCESS"
	ResultFail    = "FAIL"
)

// Values 请求/响应/通知的字段集合。
// 所有非字符串值统一经由 SetInt64 等入口转为字符串，
// 签名与编码共用同一份字符串化结果。
type Values map[string]string

// Set 写入字符串字段
func (v Values) Set(key, value string) {
	v[key] = value
}

// SetInt64 写入整型字段（金额等以分为单位的值）
func (v Values) SetInt64(key string, value int64) {
	v[key] = strconv.FormatInt(value, 10)
}

// Get 读取字段，缺失返回空串
func (v Values) Get(key string) string {
	return v[key]
}

// Has 判断字段是否存在
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// Clone 复制字段集合
func (v Values) Clone() Values {
	copied := make(Values, len(v))
	for key, value := range v {
		copied[key] = value
	}
	return copied
}
