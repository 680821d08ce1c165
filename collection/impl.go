package collection

import (
	"iter"
	"slices"
)

// LinkedHashSet 按插入顺序迭代的集合
type LinkedHashSet[T comparable] struct {
	index map[T]int
	items []T
}

// NewLinkedHashSet 创建空的 LinkedHashSet
func NewLinkedHashSet[T comparable]() *LinkedHashSet[T] {
	return &LinkedHashSet[T]{index: make(map[T]int)}
}

func (s *LinkedHashSet[T]) Add(v T) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

func (s *LinkedHashSet[T]) Remove(v T) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	delete(s.index, v)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *LinkedHashSet[T]) Contains(v T) bool {
	_, ok := s.index[v]
	return ok
}

func (s *LinkedHashSet[T]) Len() int {
	return len(s.items)
}

func (s *LinkedHashSet[T]) All() iter.Seq[T] {
	return slices.Values(s.items)
}

// ArrayList 基于切片的列表
type ArrayList[T any] struct {
	items []T
}

// NewArrayList 创建空的 ArrayList
func NewArrayList[T any]() *ArrayList[T] {
	return &ArrayList[T]{}
}

func (l *ArrayList[T]) Add(v T) {
	l.items = append(l.items, v)
}

func (l *ArrayList[T]) Get(i int) T {
	return l.items[i]
}

func (l *ArrayList[T]) Set(i int, v T) {
	l.items[i] = v
}

func (l *ArrayList[T]) RemoveAt(i int) T {
	v := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	return v
}

func (l *ArrayList[T]) Len() int {
	return len(l.items)
}

func (l *ArrayList[T]) All() iter.Seq[T] {
	return slices.Values(l.items)
}

// OrderedSet 保持元素有序的集合，使用二分查找维护切片
type OrderedSet[T comparable] struct {
	items   []T
	compare func(a, b T) int
}

// NewSortedSet 创建空的有序集合
// 元素实现 Comparer 时按 Compare 排序，否则按自然顺序排序（见 Natural）
func NewSortedSet[T comparable]() *OrderedSet[T] {
	return NewSortedSetFunc(naturalOrder[T]())
}

// NewSortedSetFunc 创建使用 compare 排序的有序集合
// compare 返回 0 的两个元素视为同一个元素
func NewSortedSetFunc[T comparable](compare func(a, b T) int) *OrderedSet[T] {
	return &OrderedSet[T]{compare: compare}
}

func (s *OrderedSet[T]) Add(v T) bool {
	i, found := slices.BinarySearchFunc(s.items, v, s.compare)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, i, v)
	return true
}

func (s *OrderedSet[T]) Remove(v T) bool {
	i, found := slices.BinarySearchFunc(s.items, v, s.compare)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

func (s *OrderedSet[T]) Contains(v T) bool {
	_, found := slices.BinarySearchFunc(s.items, v, s.compare)
	return found
}

func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

func (s *OrderedSet[T]) All() iter.Seq[T] {
	return slices.Values(s.items)
}

func (s *OrderedSet[T]) First() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[0], true
}

func (s *OrderedSet[T]) Last() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

var (
	_ Set[string]       = (*LinkedHashSet[string])(nil)
	_ List[string]      = (*ArrayList[string])(nil)
	_ SortedSet[string] = (*OrderedSet[string])(nil)
)
