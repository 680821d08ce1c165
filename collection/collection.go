// Package collection 提供生成的客户端结构体使用的集合接口及默认实现。
//
// 实体字段声明为 Set / List / SortedSet 接口时，生成的构造函数会用
// NewLinkedHashSet / NewArrayList / NewSortedSet 初始化该字段。
package collection

import "iter"

// Set 无重复元素集合
type Set[T comparable] interface {
	Add(v T) bool
	Remove(v T) bool
	Contains(v T) bool
	Len() int
	All() iter.Seq[T]
}

// List 有序可重复列表
type List[T any] interface {
	Add(v T)
	Get(i int) T
	Set(i int, v T)
	RemoveAt(i int) T
	Len() int
	All() iter.Seq[T]
}

// SortedSet 按元素自然顺序迭代的集合
type SortedSet[T comparable] interface {
	Set[T]
	First() (T, bool)
	Last() (T, bool)
}
