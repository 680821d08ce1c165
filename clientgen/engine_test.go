package clientgen

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/donutnomad/restgen/annotation"
	"github.com/donutnomad/restgen/model"
	"github.com/donutnomad/restgen/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	srcPkg    = "example.com/app/model"
	clientPkg = "example.com/app/model/client"
)

func entity(name string) *model.Class {
	return model.NewClass(name, srcPkg).Annotate(model.NewAnnotation(annotation.Entity, nil))
}

func widgetClass() *model.Class {
	return entity("Widget").
		Annotate(model.NewAnnotation(annotation.RemoteResource, map[string]any{"value": "widgets"})).
		AddField(
			model.NewField("id", "int64"),
			model.NewField("name", "string"),
			model.NewField("owner", "*"+srcPkg+".Person", model.NewAnnotation(annotation.LinkedResource, nil)),
			model.NewField("tags", collectionPackage+".List["+srcPkg+".Tag]", model.NewAnnotation(annotation.EmbeddedResource, nil)),
		)
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(nil, opts...)
	require.NoError(t, err)
	return e
}

func annotationNames(anns []model.Annotation) []string {
	var names []string
	for _, a := range anns {
		names = append(names, a.Name())
	}
	return names
}

func TestGenerate_NotEntity(t *testing.T) {
	e := newEngine(t)

	class, err := e.Generate(model.NewClass("Plain", srcPkg).AddField(model.NewField("id", "int64")))
	assert.NoError(t, err)
	assert.Nil(t, class)

	// 没有 @Entity 时即使缺少 id 也不报错
	class, err = e.Generate(model.NewClass("NoID", srcPkg))
	assert.NoError(t, err)
	assert.Nil(t, class)
}

func TestGenerate_Widget(t *testing.T) {
	e := newEngine(t)

	class, err := e.Generate(widgetClass())
	require.NoError(t, err)
	require.NotNil(t, class)

	assert.Equal(t, "Widget", class.Name)
	assert.Equal(t, clientPkg, class.Package)
	assert.Equal(t, srcPkg+".Widget", class.Source)
	assert.Equal(t, filepath.Join("example.com", "app", "model", "client", "Widget.go"), class.RelativePath)

	require.Len(t, class.Annotations, 1)
	assert.Equal(t, rest.RemoteResource, class.Annotations[0].Name())
	assert.Equal(t, map[string]any{"value": "widgets"}, class.Annotations[0].Values())

	require.Len(t, class.Properties, 4)

	id := class.Properties[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, URIType, id.Type)
	assert.True(t, id.ReadOnly)
	assert.Empty(t, id.Annotations)
	assert.Nil(t, id.Initializer)

	name := class.Properties[1]
	assert.Equal(t, "string", name.Type)
	assert.False(t, name.ReadOnly)
	assert.Empty(t, name.Annotations)

	owner := class.Properties[2]
	assert.Equal(t, "*"+clientPkg+".Person", owner.Type)
	assert.Equal(t, []string{rest.LinkedResource}, annotationNames(owner.Annotations))

	tags := class.Properties[3]
	assert.Equal(t, collectionPackage+".List["+clientPkg+".Tag]", tags.Type)
	assert.Equal(t, []string{rest.EmbeddedResource, rest.Deserialize}, annotationNames(tags.Annotations))
	assert.Equal(t,
		map[string]any{"contentUsing": model.TypeRef(rest.EmbeddedChildDecoderType)},
		tags.Annotations[1].Values())
	require.NotNil(t, tags.Initializer)
	assert.Equal(t, model.TypeRef(collectionPackage+".NewArrayList"), tags.Initializer.Constructor)
	assert.Equal(t, []string{clientPkg + ".Tag"}, tags.Initializer.TypeArgs)
}

func TestGenerate_IdentifierFirst(t *testing.T) {
	e := newEngine(t)

	src := entity("Order").AddField(
		model.NewField("total", "float64"),
		model.NewField("ID", "string"),
		model.NewField("note", "string"),
	)
	class, err := e.Generate(src)
	require.NoError(t, err)

	require.Len(t, class.Properties, 3)
	assert.Equal(t, "ID", class.Properties[0].Name)
	assert.Equal(t, URIType, class.Properties[0].Type)
	assert.Equal(t, "total", class.Properties[1].Name)
	assert.Equal(t, "note", class.Properties[2].Name)
}

func TestGenerate_NoIdentifier(t *testing.T) {
	e := newEngine(t)

	_, err := e.Generate(entity("Orphan").AddField(model.NewField("name", "string")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoIdentifier))
	assert.Contains(t, err.Error(), srcPkg+".Orphan")
}

func TestGenerate_RemoteResourceWithoutValue(t *testing.T) {
	e := newEngine(t)

	src := entity("Thing").
		Annotate(model.NewAnnotation(annotation.RemoteResource, map[string]any{"other": "x"})).
		AddField(model.NewField("id", "int64"))
	class, err := e.Generate(src)
	require.NoError(t, err)

	require.Len(t, class.Annotations, 1)
	assert.Equal(t, rest.RemoteResource, class.Annotations[0].Name())
	assert.Empty(t, class.Annotations[0].Values())
}

func TestGenerate_RemoteResourceNonStringValue(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"type ref", model.TypeRef("v1.widgets"), "v1.widgets"},
		{"int", int64(2), "2"},
		{"bool", true, "true"},
		{"string", "widgets", "widgets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := entity("Thing").
				Annotate(model.NewAnnotation(annotation.RemoteResource, map[string]any{"value": tt.value})).
				AddField(model.NewField("id", "int64"))
			class, err := e.Generate(src)
			require.NoError(t, err)

			require.Len(t, class.Annotations, 1)
			assert.Equal(t, map[string]any{"value": tt.want}, class.Annotations[0].Values())
		})
	}
}

func TestGenerate_OnlyChosenIdentifierRemoved(t *testing.T) {
	e := newEngine(t)

	src := entity("Account").AddField(
		model.NewField("ID", "int64"),
		model.NewField("Id", "string"),
		model.NewField("name", "string"),
	)
	class, err := e.Generate(src)
	require.NoError(t, err)

	require.Len(t, class.Properties, 3)
	assert.Equal(t, "ID", class.Properties[0].Name)
	assert.Equal(t, URIType, class.Properties[0].Type)
	assert.True(t, class.Properties[0].ReadOnly)

	assert.Equal(t, "Id", class.Properties[1].Name)
	assert.Equal(t, "string", class.Properties[1].Type)
	assert.False(t, class.Properties[1].ReadOnly)

	assert.Equal(t, "name", class.Properties[2].Name)
}

func TestGenerate_UnknownAnnotationsDropped(t *testing.T) {
	e := newEngine(t)

	src := entity("Thing").AddField(
		model.NewField("id", "int64", model.NewAnnotation("Column", nil)),
		model.NewField("name", "string", model.NewAnnotation("Column", map[string]any{"value": "n"})),
	)
	class, err := e.Generate(src)
	require.NoError(t, err)

	assert.Empty(t, class.Properties[0].Annotations)
	assert.Empty(t, class.Properties[1].Annotations)
}

func TestGenerate_CustomRegistry(t *testing.T) {
	registry := annotation.NewRegistry().
		MustRegister("Column", "json.Property", map[string]any{"required": true})

	e, err := New(registry)
	require.NoError(t, err)
	assert.True(t, registry.Sealed())

	src := entity("Thing").AddField(
		model.NewField("id", "int64"),
		model.NewField("name", "string", model.NewAnnotation("Column", map[string]any{"value": "n", "required": false})),
		model.NewField("owner", "*"+srcPkg+".Person", model.NewAnnotation(annotation.LinkedResource, nil)),
	)
	class, err := e.Generate(src)
	require.NoError(t, err)

	name := class.Properties[1]
	require.Len(t, name.Annotations, 1)
	assert.Equal(t, "json.Property", name.Annotations[0].Name())
	assert.Equal(t, map[string]any{"value": "n", "required": true}, name.Annotations[0].Values())

	// 自定义翻译表不包含内置规则
	assert.Empty(t, class.Properties[2].Annotations)
}

func TestGenerate_Initializers(t *testing.T) {
	e := newEngine(t)

	src := entity("Bag").AddField(
		model.NewField("id", "int64"),
		model.NewField("set", collectionPackage+".Set[string]"),
		model.NewField("sorted", collectionPackage+".SortedSet[int]"),
		model.NewField("pairs", collectionPackage+".List[map[string]"+srcPkg+".Tag]"),
		model.NewField("plain", "[]string"),
	)
	class, err := e.Generate(src)
	require.NoError(t, err)

	props := class.Properties
	require.NotNil(t, props[1].Initializer)
	assert.Equal(t, model.TypeRef(collectionPackage+".NewLinkedHashSet"), props[1].Initializer.Constructor)
	assert.Equal(t, []string{"string"}, props[1].Initializer.TypeArgs)

	require.NotNil(t, props[2].Initializer)
	assert.Equal(t, model.TypeRef(collectionPackage+".NewSortedSet"), props[2].Initializer.Constructor)

	require.NotNil(t, props[3].Initializer)
	assert.Equal(t, []string{"map[string]" + clientPkg + ".Tag"}, props[3].Initializer.TypeArgs)

	assert.Nil(t, props[4].Initializer)
}

func TestPackageRewriter(t *testing.T) {
	rewrite := packageRewriter(srcPkg, clientPkg)

	tests := []struct {
		in   string
		want string
	}{
		{srcPkg + ".Tag", clientPkg + ".Tag"},
		{"*" + srcPkg + ".Person", "*" + clientPkg + ".Person"},
		{"[]" + srcPkg + ".Tag", "[]" + clientPkg + ".Tag"},
		{"map[" + srcPkg + ".K]" + srcPkg + ".V", "map[" + clientPkg + ".K]" + clientPkg + ".V"},
		{"example.com/app/models.Tag", "example.com/app/models.Tag"},
		{srcPkg + "/sub.Tag", srcPkg + "/sub.Tag"},
		{"other.com/example.com/app/model.Tag", "other.com/example.com/app/model.Tag"},
		{"time.Time", "time.Time"},
		{"int64", "int64"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, rewrite(tt.in))
		})
	}
}

func TestSplitTypeArgs(t *testing.T) {
	base, args := splitTypeArgs("a/b.T[X, map[K]V, func(a, b int)]")
	assert.Equal(t, "a/b.T", base)
	assert.Equal(t, []string{"X", "map[K]V", "func(a, b int)"}, args)

	base, args = splitTypeArgs("[]string")
	assert.Equal(t, "[]string", base)
	assert.Nil(t, args)

	base, args = splitTypeArgs("map[string]int")
	assert.Equal(t, "map[string]int", base)
	assert.Nil(t, args)
}

func TestFileNameTemplate(t *testing.T) {
	src := entity("OrderItem").AddField(model.NewField("id", "int64"))

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"default", "", "OrderItem.go"},
		{"snake", SnakeFileNameTemplate, "order_item.go"},
		{"sprig", "{{ .Name | lower }}_client", "orderitem_client.go"},
		{"suffix stripped", "{{ .Name }}.go", "OrderItem.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, WithFileNameTemplate(tt.template))
			class, err := e.Generate(src)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join("example.com", "app", "model", "client", tt.want), class.RelativePath)
		})
	}
}

func TestFileNameTemplate_Invalid(t *testing.T) {
	_, err := New(nil, WithFileNameTemplate("{{ .Name "))
	assert.Error(t, err)

	e := newEngine(t, WithFileNameTemplate("{{ .Missing }}"))
	_, err = e.Generate(entity("Thing").AddField(model.NewField("id", "int64")))
	assert.Error(t, err)

	e = newEngine(t, WithFileNameTemplate("a/{{ .Name }}"))
	_, err = e.Generate(entity("Thing").AddField(model.NewField("id", "int64")))
	assert.Error(t, err)
}

func TestDerive(t *testing.T) {
	base := newEngine(t)

	api, err := base.Derive(WithClientPackage("api"))
	require.NoError(t, err)
	assert.Equal(t, "api", api.ClientPackage())
	assert.Equal(t, DefaultClientPackage, base.ClientPackage())

	class, err := api.Generate(widgetClass())
	require.NoError(t, err)
	assert.Equal(t, srcPkg+"/api", class.Package)
	assert.Equal(t, "*"+srcPkg+"/api.Person", class.Properties[2].Type)
}

func TestCustomAnnotationNames(t *testing.T) {
	e := newEngine(t,
		WithEntityAnnotation("Table"),
		WithRemoteResourceAnnotation("Endpoint"),
	)

	src := model.NewClass("Thing", srcPkg).
		Annotate(
			model.NewAnnotation("Table", nil),
			model.NewAnnotation("Endpoint", map[string]any{"value": "things"}),
		).
		AddField(model.NewField("id", "int64"))
	class, err := e.Generate(src)
	require.NoError(t, err)
	require.NotNil(t, class)
	require.Len(t, class.Annotations, 1)
	assert.Equal(t, map[string]any{"value": "things"}, class.Annotations[0].Values())

	class, err = e.Generate(widgetClass())
	assert.NoError(t, err)
	assert.Nil(t, class)
}

func TestGenerate_Idempotent(t *testing.T) {
	e := newEngine(t)
	src := widgetClass()

	first, err := e.Generate(src)
	require.NoError(t, err)
	second, err := e.Generate(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_WidgetWithLabel(t *testing.T) {
	registry := annotation.Default().MustRegister("Label", "rest.Label")
	e, err := New(registry)
	require.NoError(t, err)

	src := entity("Widget").
		Annotate(model.NewAnnotation(annotation.RemoteResource, map[string]any{"value": "widgets"})).
		AddField(
			model.NewField("id", "*net/url.URL"),
			model.NewField("name", "string", model.NewAnnotation("Label", map[string]any{"value": "Name"})),
		)
	class, err := e.Generate(src)
	require.NoError(t, err)

	assert.Equal(t, clientPkg+".Widget", class.Package+"."+class.Name)
	assert.Equal(t, map[string]any{"value": "widgets"}, class.Annotations[0].Values())

	require.Len(t, class.Properties, 2)
	assert.True(t, class.Properties[0].ReadOnly)
	assert.Equal(t, URIType, class.Properties[0].Type)

	name := class.Properties[1]
	require.Len(t, name.Annotations, 1)
	assert.Equal(t, "rest.Label", name.Annotations[0].Name())
	assert.Equal(t, map[string]any{"value": "Name"}, name.Annotations[0].Values())
	assert.Nil(t, name.Initializer)
}

func TestGenerate_ListOfTag(t *testing.T) {
	e := newEngine(t)

	class, err := e.Generate(entity("Post").AddField(
		model.NewField("id", "int64"),
		model.NewField("tags", collectionPackage+".List["+srcPkg+".Tag]"),
	))
	require.NoError(t, err)

	tags := class.Properties[1]
	assert.Equal(t, collectionPackage+".List["+clientPkg+".Tag]", tags.Type)
	assert.Empty(t, tags.Annotations)
	require.NotNil(t, tags.Initializer)
	assert.Equal(t, model.TypeRef(collectionPackage+".NewArrayList"), tags.Initializer.Constructor)
	assert.Equal(t, []string{clientPkg + ".Tag"}, tags.Initializer.TypeArgs)
}
