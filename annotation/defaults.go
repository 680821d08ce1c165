package annotation

import (
	"github.com/donutnomad/restgen/model"
	"github.com/donutnomad/restgen/rest"
)

// 源（持久化实体）一侧识别的注解名称
const (
	Entity           = "Entity"
	RemoteResource   = "RemoteResource"
	LinkedResource   = "LinkedResource"
	EmbeddedResource = "EmbeddedResource"
)

// Default 返回内置翻译表（未冻结，调用方可以继续追加规则）
//
//	@RemoteResource   -> @rest.RemoteResource
//	@LinkedResource   -> @rest.LinkedResource
//	@EmbeddedResource -> @rest.EmbeddedResource
//	                  -> @json.Deserialize(contentUsing=rest.EmbeddedChildDecoder)
func Default() *Registry {
	return NewRegistry().
		MustRegister(RemoteResource, rest.RemoteResource).
		MustRegister(LinkedResource, rest.LinkedResource).
		MustRegister(EmbeddedResource, rest.EmbeddedResource).
		MustRegister(EmbeddedResource, rest.Deserialize, map[string]any{
			"contentUsing": model.TypeRef(rest.EmbeddedChildDecoderType),
		})
}
