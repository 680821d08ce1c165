// Package clientgen 将带 @Entity 注解的持久化实体转换为 REST 客户端结构体
package clientgen

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/donutnomad/restgen/annotation"
	"github.com/donutnomad/restgen/internal/utils"
	"github.com/donutnomad/restgen/model"
	"github.com/donutnomad/restgen/rest"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// ErrNoIdentifier 实体缺少标识字段 id
var ErrNoIdentifier = errors.New("no identifier field found")

const (
	// DefaultClientPackage 客户端子包名
	DefaultClientPackage = "client"

	// DefaultFileNameTemplate 默认文件名模板（不含 .go 后缀），即结构体名
	DefaultFileNameTemplate = "{{ .Name }}"

	// SnakeFileNameTemplate 蛇形文件名模板，如 OrderItem -> order_item
	SnakeFileNameTemplate = "{{ .Name | snake }}"

	// IdentifierField 标识字段名，匹配时不区分大小写
	IdentifierField = "id"

	// URIType 标识属性的类型
	URIType = "*net/url.URL"

	collectionPackage = "github.com/donutnomad/restgen/collection"
)

// collectionInitializers 集合接口到默认实现构造函数的映射
var collectionInitializers = map[string]model.TypeRef{
	collectionPackage + ".Set":       collectionPackage + ".NewLinkedHashSet",
	collectionPackage + ".List":      collectionPackage + ".NewArrayList",
	collectionPackage + ".SortedSet": collectionPackage + ".NewSortedSet",
}

// Initializer 属性的默认值，即 Constructor[TypeArgs...]()
type Initializer struct {
	Constructor model.TypeRef
	TypeArgs    []string
}

// Property 生成结构体的一个属性（字段 + 访问器）
type Property struct {
	Name        string
	Type        string // 带完整导入路径的类型
	ReadOnly    bool   // 只生成 getter
	Annotations []model.Annotation
	Initializer *Initializer
}

// GeneratedClass 生成的客户端结构体描述
type GeneratedClass struct {
	Name         string
	Package      string // 客户端包导入路径
	Source       string // 源结构体，格式为 "导入路径.名称"
	Annotations  []model.Annotation
	Properties   []*Property // 标识属性在最前
	RelativePath string
}

// Engine 转换引擎
// 创建后只读，可被多个 goroutine 同时使用
type Engine struct {
	registry       *annotation.Registry
	clientPackage  string
	entity         string
	remoteResource string
	fileNameText   string
	fileName       *template.Template
}

// Option 引擎选项
type Option func(*Engine)

// WithClientPackage 设置客户端子包名
func WithClientPackage(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.clientPackage = strings.Trim(name, "/")
		}
	}
}

// WithEntityAnnotation 设置实体标记注解名
func WithEntityAnnotation(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.entity = name
		}
	}
}

// WithRemoteResourceAnnotation 设置源结构体上的远程资源注解名
func WithRemoteResourceAnnotation(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.remoteResource = name
		}
	}
}

// WithFileNameTemplate 设置文件名模板，可使用 sprig 函数和 snake
// 模板数据: .Name 结构体名, .Package 客户端包导入路径, .Source 源结构体
func WithFileNameTemplate(text string) Option {
	return func(e *Engine) {
		if text != "" {
			e.fileNameText = text
		}
	}
}

// New 创建转换引擎
// registry 为空时使用内置翻译表；传入的 registry 会被冻结
func New(registry *annotation.Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		registry = annotation.Default()
	}
	e := &Engine{
		registry:       registry.Seal(),
		clientPackage:  DefaultClientPackage,
		entity:         annotation.Entity,
		remoteResource: annotation.RemoteResource,
		fileNameText:   DefaultFileNameTemplate,
	}
	return e.apply(opts)
}

// Derive 基于当前引擎创建新的引擎，共享同一个翻译表
func (e *Engine) Derive(opts ...Option) (*Engine, error) {
	clone := *e
	return clone.apply(opts)
}

func (e *Engine) apply(opts []Option) (*Engine, error) {
	for _, opt := range opts {
		opt(e)
	}
	tmpl, err := template.New("filename").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{"snake": utils.ToSnakeCase}).
		Option("missingkey=error").
		Parse(e.fileNameText)
	if err != nil {
		return nil, fmt.Errorf("解析文件名模板失败: %w", err)
	}
	e.fileName = tmpl
	return e, nil
}

// ClientPackage 返回客户端子包名
func (e *Engine) ClientPackage() string {
	return e.clientPackage
}

// Generate 转换一个源结构体
// 没有实体标记的结构体返回 (nil, nil)；缺少 id 字段返回 ErrNoIdentifier
func (e *Engine) Generate(src model.ClassSource) (*GeneratedClass, error) {
	if model.FindAnnotation(src.Annotations(), e.entity) == nil {
		return nil, nil
	}

	class := &GeneratedClass{
		Name:    src.Name(),
		Package: src.Package() + "/" + e.clientPackage,
		Source:  src.Package() + "." + src.Name(),
	}

	if ann := model.FindAnnotation(src.Annotations(), e.remoteResource); ann != nil {
		attrs := make(map[string]any)
		if value, ok := resourcePath(ann.Values()[annotationValueKey]); ok {
			attrs[annotationValueKey] = value
		}
		class.Annotations = append(class.Annotations, model.NewAnnotation(rest.RemoteResource, attrs))
	}

	fields := src.Fields()
	id, idIndex, ok := lo.FindIndexOf(fields, isIdentifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoIdentifier, class.Source)
	}
	class.Properties = append(class.Properties, &Property{
		Name:     id.Name(),
		Type:     URIType,
		ReadOnly: true,
	})

	rewrite := packageRewriter(src.Package(), class.Package)
	for _, field := range lo.Reject(fields, func(_ model.Field, i int) bool { return i == idIndex }) {
		prop := &Property{
			Name: field.Name(),
			Type: rewrite(field.QualifiedType()),
		}
		for _, ann := range field.Annotations() {
			e.registry.Apply(ann.Name(), ann.Values(), func(target string, attrs map[string]any) {
				prop.Annotations = append(prop.Annotations, model.NewAnnotation(target, attrs))
			})
		}
		prop.Initializer = initializerFor(prop.Type)
		class.Properties = append(class.Properties, prop)
	}

	fileName, err := e.renderFileName(class)
	if err != nil {
		return nil, err
	}
	segments := append(strings.Split(class.Package, "/"), fileName+".go")
	class.RelativePath = filepath.Join(segments...)

	return class, nil
}

const annotationValueKey = "value"

// resourcePath 将 RemoteResource 的 value 统一为字符串
// 未加引号的 v1.widgets 会被解析为类型引用，数字会被解析为整数，这里都还原为文本
func resourcePath(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case model.TypeRef:
		return val.String(), true
	}
	s, err := cast.ToStringE(v)
	return s, err == nil
}

func isIdentifier(f model.Field) bool {
	return strings.EqualFold(f.Name(), IdentifierField)
}

func (e *Engine) renderFileName(class *GeneratedClass) (string, error) {
	var buf bytes.Buffer
	if err := e.fileName.Execute(&buf, class); err != nil {
		return "", fmt.Errorf("%s: 生成文件名失败: %w", class.Source, err)
	}
	name := strings.TrimSuffix(strings.TrimSpace(buf.String()), ".go")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%s: 无效的文件名 %q", class.Source, name)
	}
	return name, nil
}

// packageRewriter 将类型字符串中源包的限定符替换为客户端包
// 只替换完整的导入路径，example.com/app/model 不会匹配 example.com/app/models
func packageRewriter(from, to string) func(string) string {
	re := regexp.MustCompile(`(^|[^\w./-])` + regexp.QuoteMeta(from) + `\.`)
	replacement := "${1}" + to + "."
	return func(typ string) string {
		return re.ReplaceAllString(typ, replacement)
	}
}

// initializerFor 集合接口类型返回默认实现的初始化器，其他类型返回 nil
func initializerFor(typ string) *Initializer {
	base, args := splitTypeArgs(typ)
	constructor, ok := collectionInitializers[base]
	if !ok {
		return nil
	}
	return &Initializer{Constructor: constructor, TypeArgs: args}
}

// splitTypeArgs 拆分泛型类型 a/b.T[X, map[K]V] -> a/b.T, [X, map[K]V]
func splitTypeArgs(typ string) (string, []string) {
	i := strings.IndexByte(typ, '[')
	if i <= 0 || !strings.HasSuffix(typ, "]") {
		return typ, nil
	}

	var args []string
	depth, start := 0, i+1
	inner := typ[:len(typ)-1]
	for j := i + 1; j < len(inner); j++ {
		switch inner[j] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:j]))
				start = j + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(inner[start:]))
	return typ[:i], args
}
