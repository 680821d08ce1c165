package goparse

import (
	"path/filepath"
	"testing"

	"github.com/donutnomad/restgen/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var widgetFile = filepath.Join("testdata", "app", "model", "widget.go")

func fieldTypes(src model.ClassSource) map[string]string {
	result := make(map[string]string)
	for _, f := range src.Fields() {
		result[f.Name()] = f.QualifiedType()
	}
	return result
}

func fieldNames(src model.ClassSource) []string {
	var names []string
	for _, f := range src.Fields() {
		names = append(names, f.Name())
	}
	return names
}

func TestParseStruct(t *testing.T) {
	src, err := NewParser().ParseStruct(widgetFile, "Widget")
	require.NoError(t, err)

	assert.Equal(t, "Widget", src.Name())
	assert.Equal(t, "example.com/app/model", src.Package())

	require.Len(t, src.Annotations(), 2)
	assert.Equal(t, "Entity", src.Annotations()[0].Name())
	remote := model.FindAnnotation(src.Annotations(), "RemoteResource")
	require.NotNil(t, remote)
	assert.Equal(t, map[string]any{"value": "widgets"}, remote.Values())

	// 嵌入字段 Base 被跳过，多名称声明展开
	assert.Equal(t, []string{"ID", "Name", "Owner", "Tags", "Labels", "Created", "A", "B", "Meta", "Hook"}, fieldNames(src))

	assert.Equal(t, map[string]string{
		"ID":      "int64",
		"Name":    "string",
		"Owner":   "*example.com/app/model.Person",
		"Tags":    "github.com/donutnomad/restgen/collection.List[example.com/app/model.Tag]",
		"Labels":  "map[string][]example.com/app/model.Tag",
		"Created": "time.Time",
		"A":       "int",
		"B":       "int",
		"Meta":    "example.com/app/runtime.Meta",
		"Hook":    "func(example.com/app/runtime.Meta, ...int) error",
	}, fieldTypes(src))
}

func TestParseStruct_FieldAnnotations(t *testing.T) {
	src, err := NewParser().ParseStruct(widgetFile, "Widget")
	require.NoError(t, err)

	byName := make(map[string]model.Field)
	for _, f := range src.Fields() {
		byName[f.Name()] = f
	}

	require.Len(t, byName["Owner"].Annotations(), 1)
	assert.Equal(t, "LinkedResource", byName["Owner"].Annotations()[0].Name())

	// 行尾注释中的注解
	require.Len(t, byName["Tags"].Annotations(), 1)
	assert.Equal(t, "EmbeddedResource", byName["Tags"].Annotations()[0].Name())

	assert.Empty(t, byName["Name"].Annotations())
}

func TestParseStruct_GroupedDecl(t *testing.T) {
	src, err := NewParser().ParseStruct(widgetFile, "Person")
	require.NoError(t, err)

	require.Len(t, src.Annotations(), 1)
	assert.Equal(t, "Entity", src.Annotations()[0].Name())
	assert.Equal(t, []string{"Id", "Nickname"}, fieldNames(src))
}

func TestParseStruct_TypeParams(t *testing.T) {
	src, err := NewParser().ParseStruct(widgetFile, "Page")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Items": "[]T",
		"Next":  "*example.com/app/model.Page[T]",
	}, fieldTypes(src))
}

func TestParseStruct_NotFound(t *testing.T) {
	_, err := NewParser().ParseStruct(widgetFile, "Missing")
	assert.ErrorIs(t, err, ErrStructNotFound)
	assert.ErrorContains(t, err, "Missing")
}

func TestParseFile(t *testing.T) {
	p := NewParser()
	classes, err := p.ParseFile(widgetFile)
	require.NoError(t, err)

	var names []string
	for _, c := range classes {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"Widget", "Person", "Tag", "Base", "Page"}, names)

	// 同一 Parser 重复解析返回缓存结果
	again, err := p.ParseFile(widgetFile)
	require.NoError(t, err)
	assert.Same(t, classes[0], again[0])
}

func TestParseFile_Invalid(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "missing.go"))
	assert.Error(t, err)
}
