package collection

import (
	"cmp"
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"
)

// Comparer 自定义排序的元素类型，Compare 返回负数、0、正数分别表示小于、等于、大于 other
type Comparer[T any] interface {
	Compare(other T) int
}

// Natural 有序类型的自然顺序
func Natural[T constraints.Ordered](a, b T) int {
	return cmp.Compare(a, b)
}

// naturalOrder 返回 T 的默认比较函数
func naturalOrder[T comparable]() func(a, b T) int {
	var zero T
	if _, ok := any(zero).(Comparer[T]); ok {
		return func(a, b T) int {
			return any(a).(Comparer[T]).Compare(b)
		}
	}
	return func(a, b T) int {
		return compareValues(reflect.ValueOf(a), reflect.ValueOf(b))
	}
}

// compareValues 按值比较：数字与字符串按自然顺序，结构体与数组逐字段（逐元素）比较，
// 指针比较指向的值（nil 最小），其余类型比较 fmt 格式化后的文本
func compareValues(a, b reflect.Value) int {
	if !a.IsValid() || !b.IsValid() {
		return cmp.Compare(boolRank(a.IsValid()), boolRank(b.IsValid()))
	}
	if a.Type() != b.Type() {
		return Natural(a.Type().String(), b.Type().String())
	}

	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Natural(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Natural(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return Natural(a.Float(), b.Float())
	case reflect.String:
		return Natural(a.String(), b.String())
	case reflect.Bool:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if c := compareValues(a.Field(i), b.Field(i)); c != 0 {
				return c
			}
		}
		return 0
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if c := compareValues(a.Index(i), b.Index(i)); c != 0 {
				return c
			}
		}
		return 0
	case reflect.Pointer, reflect.Interface:
		switch {
		case a.IsNil() || b.IsNil():
			return cmp.Compare(boolRank(!a.IsNil()), boolRank(!b.IsNil()))
		case a.Kind() == reflect.Pointer && a.Pointer() == b.Pointer():
			return 0
		}
		return compareValues(a.Elem(), b.Elem())
	default:
		return Natural(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
