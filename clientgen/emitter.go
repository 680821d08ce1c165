package clientgen

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/donutnomad/gg"
	"github.com/donutnomad/restgen/internal/utils"
	"github.com/donutnomad/restgen/model"
	"github.com/donutnomad/restgen/plugin"
)

// Writer 接收渲染后的客户端源文件
type Writer interface {
	Write(relativePath string, src []byte) error
}

// Emit 渲染 class 并交给 writer 写入，writer 的错误原样返回
func Emit(class *GeneratedClass, writer Writer) error {
	src, err := Render(class)
	if err != nil {
		return err
	}
	return writer.Write(class.RelativePath, src)
}

// Render 将 class 渲染为格式化后的 Go 源码
func Render(class *GeneratedClass) ([]byte, error) {
	src := Definition(class).Bytes()
	formatted, err := plugin.Format(class.RelativePath, src)
	if err != nil {
		return nil, fmt.Errorf("%s: 格式化生成代码失败: %w", class.Source, err)
	}
	return formatted, nil
}

// Definition 构建 class 的 gg 定义
func Definition(class *GeneratedClass) *gg.Generator {
	gen := gg.New()
	gen.SetHeader(plugin.GeneratedHeader)
	gen.SetPackage(utils.PackageName(class.Package))

	r := newTypeRenderer(gen, class.Package)
	body := gen.Body()

	recv := receiverName(class)
	structType := "*" + class.Name

	// ====== 结构体
	body.Append(gg.String("// %s is the REST client representation of %s.", class.Name, class.Source))
	for _, ann := range class.Annotations {
		body.Append(gg.String("%s", annotationComment(ann)))
	}
	structDef := body.NewStruct(class.Name)
	for _, prop := range class.Properties {
		structDef.AddField(fieldName(prop), r.render(prop.Type))
	}

	// ====== 构造函数
	body.AddLine()
	body.Append(gg.String("// New%s returns a %s with its collections initialized.", class.Name, class.Name))
	body.NewFunction("New"+class.Name).
		AddResult("", structType).
		AddBody(gg.String("%s", constructorBody(class, r)))

	// ====== 访问器
	for _, prop := range class.Properties {
		name := utils.ExportedName(prop.Name)
		field := fieldName(prop)
		typ := r.render(prop.Type)

		body.AddLine()
		for _, ann := range prop.Annotations {
			body.Append(gg.String("%s", annotationComment(ann)))
		}
		body.NewFunction(name).
			WithReceiver(recv, structType).
			AddResult("", typ).
			AddBody(gg.String("return %s.%s", recv, field))

		if prop.ReadOnly {
			continue
		}

		param := field
		if param == recv {
			param += "Value"
		}
		body.AddLine()
		body.NewFunction("Set"+name).
			WithReceiver(recv, structType).
			AddParameter(param, typ).
			AddBody(gg.String("%s.%s = %s", recv, field, param))
	}

	return gen
}

func fieldName(prop *Property) string {
	return utils.LowerCamel(prop.Name)
}

func receiverName(class *GeneratedClass) string {
	return strings.ToLower(string([]rune(class.Name)[:1]))
}

func constructorBody(class *GeneratedClass, r *typeRenderer) string {
	var inits []string
	for _, prop := range class.Properties {
		if prop.Initializer == nil {
			continue
		}
		inits = append(inits, fmt.Sprintf("\t%s: %s,", fieldName(prop), r.initializer(prop.Initializer)))
	}
	if len(inits) == 0 {
		return fmt.Sprintf("return &%s{}", class.Name)
	}
	return fmt.Sprintf("return &%s{\n%s\n}", class.Name, strings.Join(inits, "\n"))
}

// annotationComment 将注解渲染为注释行
// 只有 value 属性时使用 @Name("x") 的简写形式，其他属性按名称排序
func annotationComment(ann model.Annotation) string {
	values := ann.Values()
	if len(values) == 0 {
		return "// @" + ann.Name()
	}
	if v, ok := values[annotationValueKey]; ok && len(values) == 1 {
		return fmt.Sprintf("// @%s(%s)", ann.Name(), formatValue(v))
	}

	keys := slices.Sorted(maps.Keys(values))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + formatValue(values[k])
	}
	return fmt.Sprintf("// @%s(%s)", ann.Name(), strings.Join(parts, ", "))
}

// formatValue 渲染注解属性值，字符串加引号，类型引用保持完整路径
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case model.TypeRef:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// qualifiedTokenRegex 匹配类型字符串中的标识符或 "导入路径.名称"
var qualifiedTokenRegex = regexp.MustCompile(`[\w./-]+`)

// typeRenderer 将带完整导入路径的类型转换为源码中的类型表达式并登记 import
type typeRenderer struct {
	gen     *gg.Generator
	self    string
	aliases map[string]string // 导入路径 -> 别名
	taken   map[string]string // 别名 -> 导入路径
}

func newTypeRenderer(gen *gg.Generator, self string) *typeRenderer {
	return &typeRenderer{
		gen:     gen,
		self:    self,
		aliases: make(map[string]string),
		taken:   make(map[string]string),
	}
}

func (r *typeRenderer) render(typ string) string {
	return qualifiedTokenRegex.ReplaceAllStringFunc(typ, func(tok string) string {
		// 可变参数 ...T
		rest := strings.TrimLeft(tok, ".")
		prefix := tok[:len(tok)-len(rest)]

		i := strings.LastIndex(rest, ".")
		if i <= 0 {
			return tok
		}
		path, name := rest[:i], rest[i+1:]
		if path == r.self {
			return prefix + name
		}
		return prefix + r.alias(path) + "." + name
	})
}

func (r *typeRenderer) initializer(init *Initializer) string {
	call := r.render(init.Constructor.String())
	if len(init.TypeArgs) > 0 {
		args := make([]string, len(init.TypeArgs))
		for i, arg := range init.TypeArgs {
			args[i] = r.render(arg)
		}
		call += "[" + strings.Join(args, ", ") + "]"
	}
	return call + "()"
}

// alias 返回导入路径的别名，同名包依次使用 name2、name3
func (r *typeRenderer) alias(path string) string {
	if alias, ok := r.aliases[path]; ok {
		return alias
	}

	base := utils.PackageName(path)
	alias := base
	for n := 2; ; n++ {
		if _, ok := r.taken[alias]; !ok {
			break
		}
		alias = base + strconv.Itoa(n)
	}

	r.aliases[path] = alias
	r.taken[alias] = path
	r.gen.PAlias(path, alias)
	return alias
}
