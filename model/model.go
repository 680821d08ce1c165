// Package model 定义代码生成引擎所依赖的只读结构模型。
//
// 引擎只通过 ClassSource / Field / Annotation 三个接口读取源结构体，
// 不关心底层使用哪种解析器（go/ast、go/types 或测试中的内存实现）。
package model

import "strings"

// Annotation 表示附加在结构体或字段上的一个注解
type Annotation interface {
	// Name 返回注解的完整名称，如 "Entity"、"rest.LinkedResource"
	Name() string

	// Values 返回注解属性，值为标量（string/bool/int64/float64）或 TypeRef
	Values() map[string]any
}

// Field 表示结构体字段
type Field interface {
	Name() string

	// QualifiedType 返回带完整导入路径限定的类型表达式（包含泛型参数），例如
	// "github.com/donutnomad/restgen/collection.List[example.com/app/model.Tag]"
	QualifiedType() string

	Annotations() []Annotation
}

// ClassSource 表示一个待转换的结构体
type ClassSource interface {
	Name() string

	// Package 返回结构体所在包的完整导入路径
	Package() string

	Annotations() []Annotation

	// Fields 按声明顺序返回字段
	Fields() []Field
}

// TypeRef 类型引用属性值，格式为 "导入路径.类型名"
type TypeRef string

// Package 返回类型所在包的导入路径
func (t TypeRef) Package() string {
	i := strings.LastIndex(string(t), ".")
	if i < 0 || strings.LastIndex(string(t), "/") > i {
		return ""
	}
	return string(t)[:i]
}

// Name 返回类型名（不含包路径）
func (t TypeRef) Name() string {
	if t.Package() == "" {
		return string(t)
	}
	return string(t)[len(t.Package())+1:]
}

func (t TypeRef) String() string {
	return string(t)
}

// FindAnnotation 按名称查找注解，未找到返回 nil
func FindAnnotation(annotations []Annotation, name string) Annotation {
	for _, ann := range annotations {
		if ann.Name() == name {
			return ann
		}
	}
	return nil
}
