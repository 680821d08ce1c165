// Package goparse 使用 go/ast 将带注解的 Go 结构体转换为 model.ClassSource
package goparse

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/donutnomad/restgen/internal/pkgresolver"
	"github.com/donutnomad/restgen/model"
	"github.com/donutnomad/restgen/plugin"
)

// ErrStructNotFound 文件中不存在指定的结构体
var ErrStructNotFound = errors.New("未找到结构体")

// Parser 解析 Go 源文件中的结构体
// 同一个 Parser 会缓存已解析的文件，可并发使用
type Parser struct {
	mu        sync.Mutex
	files     map[string][]*model.Class
	resolvers map[string]*pkgresolver.Resolver // key: 模块目录
}

func NewParser() *Parser {
	return &Parser{
		files:     make(map[string][]*model.Class),
		resolvers: make(map[string]*pkgresolver.Resolver),
	}
}

var defaultParser = NewParser()

// ParseFile 解析文件中的所有结构体（按声明顺序）
func ParseFile(filename string) ([]model.ClassSource, error) {
	return defaultParser.ParseFile(filename)
}

// ParseStruct 解析文件中的指定结构体
func ParseStruct(filename, structName string) (model.ClassSource, error) {
	return defaultParser.ParseStruct(filename, structName)
}

func (p *Parser) ParseFile(filename string) ([]model.ClassSource, error) {
	classes, err := p.parse(filename)
	if err != nil {
		return nil, err
	}
	result := make([]model.ClassSource, len(classes))
	for i, c := range classes {
		result[i] = c
	}
	return result, nil
}

func (p *Parser) ParseStruct(filename, structName string) (model.ClassSource, error) {
	classes, err := p.parse(filename)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if c.Name() == structName {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%s: %w: %s", filename, ErrStructNotFound, structName)
}

func (p *Parser) parse(filename string) ([]*model.Class, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if classes, ok := p.files[absPath]; ok {
		return classes, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, absPath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析文件失败: %w", err)
	}

	module, err := pkgresolver.FindModule(filepath.Dir(absPath))
	if err != nil {
		return nil, err
	}
	pkgPath, err := module.ImportPath(filepath.Dir(absPath))
	if err != nil {
		return nil, err
	}

	resolver, ok := p.resolvers[module.Dir]
	if !ok {
		resolver = pkgresolver.NewResolver(module)
		p.resolvers[module.Dir] = resolver
	}

	imports, err := fileImports(file, resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	var classes []*model.Class
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := typeSpec.Doc
			if doc == nil && len(genDecl.Specs) == 1 {
				doc = genDecl.Doc
			}

			q := &qualifier{
				pkgPath:    pkgPath,
				imports:    imports,
				typeParams: typeParamNames(typeSpec),
			}
			class := model.NewClass(typeSpec.Name.Name, pkgPath).
				Annotate(annotations(doc)...)
			for _, field := range structType.Fields.List {
				// 嵌入字段没有名称，不作为属性
				if len(field.Names) == 0 {
					continue
				}
				typ, err := q.render(field.Type)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", typeSpec.Name.Name, field.Names[0].Name, err)
				}
				fieldAnnotations := append(annotations(field.Doc), annotations(field.Comment)...)
				for _, name := range field.Names {
					class.AddField(model.NewField(name.Name, typ, fieldAnnotations...))
				}
			}
			classes = append(classes, class)
		}
	}

	p.files[absPath] = classes
	return classes, nil
}

// fileImports 返回文件中包名（或别名）到导入路径的映射
func fileImports(file *ast.File, resolver *pkgresolver.Resolver) (map[string]string, error) {
	imports := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("无效的导入路径 %s: %w", imp.Path.Value, err)
		}

		var name string
		switch {
		case imp.Name == nil:
			name = resolver.PackageName(path)
		case imp.Name.Name == "_", imp.Name.Name == ".":
			continue
		default:
			name = imp.Name.Name
		}
		imports[name] = path
	}
	return imports, nil
}

func typeParamNames(spec *ast.TypeSpec) map[string]bool {
	names := make(map[string]bool)
	if spec.TypeParams == nil {
		return names
	}
	for _, field := range spec.TypeParams.List {
		for _, name := range field.Names {
			names[name.Name] = true
		}
	}
	return names
}

// annotations 将注释中的注解转换为模型注解
func annotations(doc *ast.CommentGroup) []model.Annotation {
	if doc == nil {
		return nil
	}
	var result []model.Annotation
	for _, ann := range plugin.ParseAnnotations(doc.Text()) {
		result = append(result, model.NewAnnotation(ann.Name, ann.Values))
	}
	return result
}
