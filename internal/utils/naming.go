package utils

import (
	"go/token"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// commonInitialisms 常见首字母缩略词列表，与 GORM 保持一致
var commonInitialisms = []string{
	"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS",
	"ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP",
	"SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM",
	"XML", "XSRF", "XSS",
}

// commonInitialismsReplacer 用于将缩略词转换为首字母大写形式
var commonInitialismsReplacer *strings.Replacer

// initialismSet 用于按单词查找缩略词
var initialismSet = make(map[string]struct{}, len(commonInitialisms))

func init() {
	replacerArgs := make([]string, 0, len(commonInitialisms)*2)
	for _, initialism := range commonInitialisms {
		// API -> Api, HTTP -> Http
		replacerArgs = append(replacerArgs, initialism, toTitleCase(initialism))
		initialismSet[initialism] = struct{}{}
	}
	commonInitialismsReplacer = strings.NewReplacer(replacerArgs...)
}

// toTitleCase 将字符串转换为首字母大写形式
func toTitleCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ToSnakeCase 将驼峰命名转换为蛇形(下划线)命名，与 GORM 的 toDBName 保持一致
// 参考: gorm/schema/naming.go:131-188
func ToSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// 首字母缩略词处理: API -> Api, HTTP -> Http
	value := commonInitialismsReplacer.Replace(name)

	var (
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32) // 转小写
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_') // 插入下划线
				}
				buf.WriteRune(v + 32) // 转小写
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	// 处理最后一个字符
	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	return buf.String()
}

// LowerCamel 将导出名转换为非导出名，首字母缩略词整体小写
// 如 Name -> name, URI -> uri, HTTPServer -> httpServer, IDs -> ids
// 结果与 Go 关键字冲突时追加下划线
func LowerCamel(name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
	case n == len(runes):
		runes = []rune(strings.ToLower(name))
	case n == 1:
		runes[0] = unicode.ToLower(runes[0])
	default:
		// HTTPServer: 最后一个大写字母属于下一个单词
		// IDs: 小写 s 是复数后缀，缩略词整体小写
		end := n - 1
		if runes[n] == 's' && (n+1 == len(runes) || unicode.IsUpper(runes[n+1])) {
			end = n
		}
		for i := 0; i < end; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	}

	result := string(runes)
	if token.IsKeyword(result) {
		result += "_"
	}
	return result
}

// UpperFirst 首字母大写
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// ExportedName 将字段名转换为导出的方法名，按单词识别首字母缩略词
// 如 id -> ID, url -> URL, httpServer -> HTTPServer, ownerId -> OwnerID, ids -> IDs
// 已经导出的名字原样返回
func ExportedName(name string) string {
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return name
	}

	var buf strings.Builder
	for _, word := range splitWords(name) {
		upper := strings.ToUpper(word)
		if _, ok := initialismSet[upper]; ok {
			buf.WriteString(upper)
			continue
		}
		if stem, ok := strings.CutSuffix(word, "s"); ok {
			if _, ok := initialismSet[strings.ToUpper(stem)]; ok {
				buf.WriteString(strings.ToUpper(stem) + "s")
				continue
			}
		}
		buf.WriteString(UpperFirst(word))
	}
	return buf.String()
}

// splitWords 在小写字母或数字后紧跟大写字母处切分
// 如 httpServer -> [http Server], userID -> [user ID]
func splitWords(name string) []string {
	var (
		words []string
		start int
		prev  rune
	)
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			words = append(words, name[start:i])
			start = i
		}
		prev = r
	}
	return append(words, name[start:])
}

// majorVersionRegex 匹配 /v2 这样的主版本后缀
var majorVersionRegex = regexp.MustCompile(`^v[0-9]+$`)

// PackageName 根据导入路径推断包名
// 忽略主版本后缀，去掉 go- 前缀与 -go 后缀，并移除非法字符
// 如 github.com/a/b/v2 -> b, github.com/a/go-yaml -> yaml, gopkg.in/yaml.v3 -> yaml
func PackageName(importPath string) string {
	parts := strings.Split(strings.Trim(importPath, "/"), "/")
	name := parts[len(parts)-1]
	if len(parts) > 1 && majorVersionRegex.MatchString(name) {
		name = parts[len(parts)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 && majorVersionRegex.MatchString(name[i+1:]) {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")

	var buf strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			buf.WriteRune(unicode.ToLower(r))
		}
	}
	result := buf.String()
	if result == "" || unicode.IsDigit(rune(result[0])) {
		result = "pkg" + result
	}
	return result
}
