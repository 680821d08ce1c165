// Package rest 是生成的客户端结构体在运行时引用的支持代码。
//
// 生成代码通过注释注解（如 // @rest.LinkedResource）描述字段在 HAL 接口中的暴露方式，
// 这里给出这些注解的名称以及需要以类型引用形式注入的解码器。
package rest

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// 客户端注解名称
const (
	RemoteResource   = "rest.RemoteResource"   // 顶层资源，value 为资源路径
	LinkedResource   = "rest.LinkedResource"   // 以超链接引用的资源
	EmbeddedResource = "rest.EmbeddedResource" // 内联在 _embedded 中的子资源
	Deserialize      = "json.Deserialize"      // 指定自定义解码器
)

// EmbeddedChildDecoderType EmbeddedChildDecoder 的类型引用，用于注解属性
const EmbeddedChildDecoderType = "github.com/donutnomad/restgen/rest.EmbeddedChildDecoder"

// EmbeddedChildDecoder 从 HAL 文档的 _embedded 节点中解码子资源
type EmbeddedChildDecoder struct{}

type halDocument struct {
	Embedded map[string]json.RawMessage `json:"_embedded"`
}

// Decode 将 data 中 _embedded[rel] 解码到 v
// rel 不存在时 v 保持不变
func (EmbeddedChildDecoder) Decode(data []byte, rel string, v any) error {
	var doc halDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("解析 HAL 文档失败: %w", err)
	}

	raw, ok := doc.Embedded[rel]
	if !ok {
		return nil
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("解码 _embedded.%s 失败: %w", rel, err)
	}
	return nil
}
