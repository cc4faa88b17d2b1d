package wechatv2

// VerifyNotification 校验入站异步通知。
// 该路径只做解码与字节比对：不发起网络请求，不使用证书，
// 也绝不解释任何字段值。只有返回成功后字段才可被信任。
func VerifyNotification(body []byte, apiKey string) (Values, error) {
	fields, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if fields.Get(FieldSign) == "" {
		return nil, ErrSignatureMissing
	}
	if !Verify(fields, apiKey) {
		return nil, ErrSignatureMismatch
	}
	return fields, nil
}

// AckSuccess 通知处理成功的应答报文
func AckSuccess() []byte {
	return Encode(Values{
		"return_code": ResultSuccess,
		"return_msg":  "OK",
	})
}

// AckFail 通知处理失败的应答报文，网关据此按自身策略重试
func AckFail(message string) []byte {
	if message == "" {
		message = "FAIL"
	}
	return Encode(Values{
		"return_code": ResultFail,
		"return_msg":  message,
	})
}
