package model

import (
	"time"

	"example.com/app/runtime"
	"github.com/donutnomad/restgen/collection"
)

// Widget 小部件
// @Entity
// @RemoteResource("widgets")
type Widget struct {
	ID   int64
	Name string
	// @LinkedResource
	Owner   *Person
	Tags    collection.List[Tag] // @EmbeddedResource
	Labels  map[string][]Tag
	Created time.Time
	A, B    int
	Meta    rt.Meta
	Base
	Hook func(meta rt.Meta, n ...int) error
}

type (
	// @Entity
	Person struct {
		Id       int64
		Nickname string
	}

	Tag struct {
		Name string
	}
)

type Base struct{}

type Page[T any] struct {
	Items []T
	Next  *Page[T]
}
