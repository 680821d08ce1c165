package model

import "maps"

// AnnotationRef 注解的内存实现
type AnnotationRef struct {
	FullyQualifiedName string
	Attributes         map[string]any
}

// NewAnnotation 创建注解，values 可以为 nil
func NewAnnotation(name string, values map[string]any) *AnnotationRef {
	return &AnnotationRef{FullyQualifiedName: name, Attributes: values}
}

func (a *AnnotationRef) Name() string {
	return a.FullyQualifiedName
}

// Values 返回属性的副本，调用方修改不会影响注解本身
func (a *AnnotationRef) Values() map[string]any {
	result := make(map[string]any, len(a.Attributes))
	maps.Copy(result, a.Attributes)
	return result
}

// FieldDescriptor 字段的内存实现
type FieldDescriptor struct {
	name        string
	typ         string
	annotations []Annotation
}

// NewField 创建字段描述
func NewField(name, qualifiedType string, annotations ...Annotation) *FieldDescriptor {
	return &FieldDescriptor{
		name:        name,
		typ:         qualifiedType,
		annotations: annotations,
	}
}

func (f *FieldDescriptor) Name() string {
	return f.name
}

func (f *FieldDescriptor) QualifiedType() string {
	return f.typ
}

func (f *FieldDescriptor) Annotations() []Annotation {
	return f.annotations
}

// Class ClassSource 的内存实现，主要用于测试以及非 go/ast 来源的模型
type Class struct {
	name        string
	pkg         string
	annotations []Annotation
	fields      []Field
}

// NewClass 创建结构体描述
func NewClass(name, pkg string) *Class {
	return &Class{name: name, pkg: pkg}
}

// Annotate 追加结构体级注解
func (c *Class) Annotate(annotations ...Annotation) *Class {
	c.annotations = append(c.annotations, annotations...)
	return c
}

// AddField 追加字段
func (c *Class) AddField(fields ...Field) *Class {
	c.fields = append(c.fields, fields...)
	return c
}

func (c *Class) Name() string {
	return c.name
}

func (c *Class) Package() string {
	return c.pkg
}

func (c *Class) Annotations() []Annotation {
	return c.annotations
}

func (c *Class) Fields() []Field {
	return c.fields
}

var (
	_ ClassSource = (*Class)(nil)
	_ Field       = (*FieldDescriptor)(nil)
	_ Annotation  = (*AnnotationRef)(nil)
)
