// Package annotation 维护源注解到客户端注解的翻译表。
//
// 翻译表在进程启动（或加载配置）时构建一次，随后调用 Seal 冻结。
// 冻结后的 Registry 只读，可被任意数量的 goroutine 并发读取而无需加锁。
package annotation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrSealed 在冻结后继续注册翻译时返回
var ErrSealed = errors.New("annotation registry is sealed")

// Translation 一条翻译规则：目标注解名以及固定的属性覆盖
type Translation struct {
	Target    string
	Overrides map[string]any
}

// Applicator 翻译回调，每条命中的翻译调用一次
// attrs 为源注解属性与规则覆盖属性合并后的结果，可由回调持有
type Applicator func(target string, attrs map[string]any)

// Registry 注解翻译表
// 一个源注解可以对应多条翻译（扇出），按注册顺序应用
type Registry struct {
	translations map[string][]Translation
	sealed       bool
}

// NewRegistry 创建空的翻译表
func NewRegistry() *Registry {
	return &Registry{
		translations: make(map[string][]Translation),
	}
}

// Register 注册一条翻译
// overrides 可选，多个 map 按顺序合并，后者覆盖前者
func (r *Registry) Register(source, target string, overrides ...map[string]any) error {
	if r.sealed {
		return fmt.Errorf("注册 @%s -> @%s 失败: %w", source, target, ErrSealed)
	}
	if source == "" || target == "" {
		return fmt.Errorf("源注解和目标注解名称不能为空: %q -> %q", source, target)
	}

	merged := make(map[string]any)
	for _, o := range overrides {
		maps.Copy(merged, o)
	}

	r.translations[source] = append(r.translations[source], Translation{
		Target:    target,
		Overrides: merged,
	})
	return nil
}

// MustRegister 注册翻译，失败时 panic
func (r *Registry) MustRegister(source, target string, overrides ...map[string]any) *Registry {
	if err := r.Register(source, target, overrides...); err != nil {
		panic(err)
	}
	return r
}

// Seal 冻结翻译表，之后的 Register 调用返回 ErrSealed
func (r *Registry) Seal() *Registry {
	r.sealed = true
	return r
}

// Sealed 返回翻译表是否已冻结
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Apply 对 source 的每条翻译调用一次 fn
// 没有注册翻译的注解会被静默忽略，这是过滤行为而不是错误
func (r *Registry) Apply(source string, values map[string]any, fn Applicator) {
	for _, t := range r.translations[source] {
		attrs := make(map[string]any, len(values)+len(t.Overrides))
		maps.Copy(attrs, values)
		maps.Copy(attrs, t.Overrides)
		fn(t.Target, attrs)
	}
}

// Translations 返回 source 的翻译规则副本
func (r *Registry) Translations(source string) []Translation {
	return slices.Clone(r.translations[source])
}

// Sources 返回所有已注册的源注解名（已排序）
func (r *Registry) Sources() []string {
	return slices.Sorted(maps.Keys(r.translations))
}
