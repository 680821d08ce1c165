package plugin

import (
	"regexp"
	"strings"

	"github.com/donutnomad/restgen/model"
	"github.com/spf13/cast"
)

// annotationRegex 匹配注解 @Name、@pkg.Name 或 @Name(params)
var annotationRegex = regexp.MustCompile(`@([A-Za-z_][\w.]*)(?:\(([^)]*)\))?`)

// paramRegex 匹配参数:
// - key=`value` (反引号格式)
// - key="value" (双引号格式)
// - key=value (普通格式)
var paramRegex = regexp.MustCompile("(\\w+)\\s*=\\s*`([^`]*)`|(\\w+)\\s*=\\s*\"([^\"]*)\"|(\\w+)\\s*=\\s*([^,\\s]+)")

// numberRegex 匹配整数或小数字面量
var numberRegex = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// qualifiedRegex 匹配 pkg.Type 或 path/to/pkg.Type 形式的类型引用
var qualifiedRegex = regexp.MustCompile(`^[\w./-]*\w\.[A-Za-z_]\w*$`)

// ValueKey 单值注解 @Name("x") 的参数名
const ValueKey = "value"

// ParseAnnotations 从注释文本中解析所有注解
func ParseAnnotations(comment string) []*Annotation {
	var annotations []*Annotation

	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(line)

		for _, match := range annotationRegex.FindAllStringSubmatch(line, -1) {
			ann := &Annotation{
				Name:   strings.TrimRight(match[1], "."),
				Params: make(map[string]string),
				Values: make(map[string]any),
				Raw:    match[0],
			}
			if len(match) > 2 && match[2] != "" {
				ann.Params, ann.Values = parseParams(match[2])
			}
			annotations = append(annotations, ann)
		}
	}

	return annotations
}

// parseParams 解析注解参数，同时返回原始文本和类型化的值
// 不含 "=" 的内容视为单值参数 value
func parseParams(content string) (map[string]string, map[string]any) {
	params := make(map[string]string)
	values := make(map[string]any)

	content = strings.TrimSpace(content)
	if content == "" {
		return params, values
	}
	if isQuoted(content) || !strings.Contains(content, "=") {
		params[ValueKey] = trimQuotes(content)
		values[ValueKey] = typedValue(content)
		return params, values
	}

	for _, match := range paramRegex.FindAllStringSubmatch(content, -1) {
		switch {
		case match[1] != "":
			params[match[1]] = match[2]
			values[match[1]] = match[2]
		case match[3] != "":
			params[match[3]] = match[4]
			values[match[3]] = match[4]
		case match[5] != "":
			params[match[5]] = match[6]
			values[match[5]] = typedValue(match[6])
		}
	}

	return params, values
}

// typedValue 将未加引号的参数值转换为 bool/int64/float64/TypeRef，其余保持字符串
func typedValue(raw string) any {
	if isQuoted(raw) {
		return trimQuotes(raw)
	}
	switch {
	case strings.EqualFold(raw, "true"), strings.EqualFold(raw, "false"):
		return cast.ToBool(strings.ToLower(raw))
	case numberRegex.MatchString(raw):
		if i, err := cast.ToInt64E(raw); err == nil && !strings.ContainsAny(raw, ".eE") {
			return i
		}
		if f, err := cast.ToFloat64E(raw); err == nil {
			return f
		}
	case qualifiedRegex.MatchString(raw):
		return model.TypeRef(raw)
	}
	return raw
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0]
}

// FilterByNames 过滤指定名称的注解
func FilterByNames(annotations []*Annotation, names ...string) []*Annotation {
	if len(names) == 0 {
		return annotations
	}

	nameSet := make(map[string]bool)
	for _, n := range names {
		nameSet[n] = true
	}

	var result []*Annotation
	for _, ann := range annotations {
		if nameSet[ann.Name] {
			result = append(result, ann)
		}
	}
	return result
}

// HasAnnotation 检查是否包含指定注解
func HasAnnotation(annotations []*Annotation, name string) bool {
	return GetAnnotation(annotations, name) != nil
}

// GetAnnotation 获取指定名称的注解
func GetAnnotation(annotations []*Annotation, name string) *Annotation {
	for _, ann := range annotations {
		if ann.Name == name {
			return ann
		}
	}
	return nil
}

// lookup 获取参数原始文本，参数名不区分大小写
func (a *Annotation) lookup(key string) (string, bool) {
	if v, ok := a.Params[key]; ok {
		return v, true
	}
	for k, v := range a.Params {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
