package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeRef(t *testing.T) {
	tests := []struct {
		ref      TypeRef
		wantPkg  string
		wantName string
	}{
		{"example.com/app/model.Tag", "example.com/app/model", "Tag"},
		{"net/url.URL", "net/url", "URL"},
		{"time.Time", "time", "Time"},
		{"gopkg.in/yaml.v3.Node", "gopkg.in/yaml.v3", "Node"},
		{"string", "", "string"},
		{"example.com/foo", "", "example.com/foo"},
	}

	for _, tt := range tests {
		t.Run(string(tt.ref), func(t *testing.T) {
			assert.Equal(t, tt.wantPkg, tt.ref.Package())
			assert.Equal(t, tt.wantName, tt.ref.Name())
		})
	}
}

func TestAnnotationRef_ValuesIsCopy(t *testing.T) {
	ann := NewAnnotation("RemoteResource", map[string]any{"value": "widgets"})

	values := ann.Values()
	values["value"] = "changed"

	assert.Equal(t, "widgets", ann.Values()["value"])
}

func TestClassBuilder(t *testing.T) {
	class := NewClass("Widget", "example.com/app/model").
		Annotate(NewAnnotation("Entity", nil)).
		AddField(
			NewField("ID", "*net/url.URL"),
			NewField("Name", "string", NewAnnotation("Label", nil)),
		)

	assert.Equal(t, "Widget", class.Name())
	assert.Equal(t, "example.com/app/model", class.Package())
	assert.Len(t, class.Fields(), 2)
	assert.Equal(t, "Name", class.Fields()[1].Name())
	assert.NotNil(t, FindAnnotation(class.Annotations(), "Entity"))
	assert.Nil(t, FindAnnotation(class.Annotations(), "RemoteResource"))
	assert.Empty(t, NewAnnotation("Entity", nil).Values())
}
