package plugin

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry 生成器注册表
// 一个注解只能绑定一个生成器，生成器名称不可重复
type Registry struct {
	mu       sync.RWMutex
	byAnn    map[string]Generator // 注解名 -> 生成器
	byName   map[string]Generator // 生成器名 -> 生成器
	ordering []Generator          // 按优先级、名称排序
}

func NewRegistry() *Registry {
	return &Registry{
		byAnn:  make(map[string]Generator),
		byName: make(map[string]Generator),
	}
}

// Register 注册生成器，生成器名或注解冲突时返回错误
func (r *Registry) Register(gen Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := gen.Name()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("生成器 %q 已注册", name)
	}
	for _, ann := range gen.Annotations() {
		if owner, ok := r.byAnn[ann]; ok {
			return fmt.Errorf("注解 @%s 已被生成器 %q 绑定，无法被 %q 再次绑定", ann, owner.Name(), name)
		}
	}

	r.byName[name] = gen
	for _, ann := range gen.Annotations() {
		r.byAnn[ann] = gen
	}
	r.ordering = append(r.ordering, gen)
	slices.SortStableFunc(r.ordering, func(a, b Generator) int {
		if d := cmp.Compare(a.Priority(), b.Priority()); d != 0 {
			return d
		}
		return cmp.Compare(a.Name(), b.Name())
	})
	return nil
}

// MustRegister 注册生成器，失败时 panic
func (r *Registry) MustRegister(gen Generator) {
	if err := r.Register(gen); err != nil {
		panic(err)
	}
}

// GetByName 根据生成器名获取生成器
func (r *Registry) GetByName(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.byName[name]
	return gen, ok
}

// Generators 返回所有生成器，优先级高（数字小）的在前，同优先级按名称排序
func (r *Registry) Generators() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.ordering)
}

// Annotations 返回所有已绑定的注解（已排序）
func (r *Registry) Annotations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.byAnn))
}

// DispatchTargets 将扫描结果分发给对应的生成器
// 返回 生成器名 -> 目标列表；同一结构体带有同一生成器的多个注解时只分发一次
func (r *Registry) DispatchTargets(result *ScanResult) map[string][]*AnnotatedTarget {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dispatch := make(map[string][]*AnnotatedTarget)
	for _, target := range result.Structs {
		seen := make(map[string]bool)
		for _, ann := range target.Annotations {
			gen, ok := r.byAnn[ann.Name]
			if !ok || seen[gen.Name()] {
				continue
			}
			seen[gen.Name()] = true
			dispatch[gen.Name()] = append(dispatch[gen.Name()], target)
		}
	}
	return dispatch
}
