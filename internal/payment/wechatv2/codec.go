package wechatv2

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Encode 序列化为网关要求的单层 XML 文档。
// 空值字段整体省略（字段的有无对网关可见）。
func Encode(fields Values) []byte {
	keys := make([]string, 0, len(fields))
	for name, value := range fields {
		if value == "" {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("<xml>")
	for _, name := range keys {
		buf.WriteByte('<')
		buf.WriteString(name)
		buf.WriteByte('>')
		writeCDATA(&buf, fields[name])
		buf.WriteString("</")
		buf.WriteString(name)
		buf.WriteByte('>')
	}
	buf.WriteString("</xml>")
	return buf.Bytes()
}

// writeCDATA 输出 CDATA 段，值内出现 "]]>" 时跨段拆分避免提前终结。
func writeCDATA(buf *bytes.Buffer, value string) {
	for {
		idx := strings.Index(value, "]]>")
		if idx < 0 {
			break
		}
		buf.WriteString("<![CDATA[")
		buf.WriteString(value[:idx+2])
		buf.WriteString("]]>")
		value = value[idx+2:]
	}
	buf.WriteString("<![CDATA[")
	buf.WriteString(value)
	buf.WriteString("]]>")
}

// Decode 解析网关的单层 XML 文档。
// 未识别的元素一律原样保留为字符串字段，验签需要完整字段集。
// 仅做结构解析，不做业务校验。
func Decode(data []byte) (Values, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedMessage)
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	fields := Values{}
	depth := 0
	sawRoot := false
	current := ""
	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			sawRoot = true
			if depth > 2 {
				return nil, fmt.Errorf("%w: nested element %s", ErrMalformedMessage, t.Name.Local)
			}
			if depth == 2 {
				current = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside root element", ErrMalformedMessage)
				}
				continue
			}
			if depth == 2 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 2 && current != "" {
				fields.Set(current, strings.TrimSpace(text.String()))
				current = ""
			}
			depth--
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced document", ErrMalformedMessage)
	}
	if !sawRoot {
		return nil, fmt.Errorf("%w: missing root element", ErrMalformedMessage)
	}
	return fields, nil
}
