package goparse

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
)

// qualifier 将类型表达式渲染为带完整导入路径的类型字符串
type qualifier struct {
	pkgPath    string
	imports    map[string]string
	typeParams map[string]bool
}

func (q *qualifier) render(expr ast.Expr) (string, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		if q.typeParams[e.Name] || types.Universe.Lookup(e.Name) != nil {
			return e.Name, nil
		}
		return q.pkgPath + "." + e.Name, nil

	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			return "", fmt.Errorf("不支持的类型表达式 %s", types.ExprString(e))
		}
		path, ok := q.imports[pkg.Name]
		if !ok {
			return "", fmt.Errorf("未找到包 %s 的导入", pkg.Name)
		}
		return path + "." + e.Sel.Name, nil

	case *ast.StarExpr:
		x, err := q.render(e.X)
		return "*" + x, err

	case *ast.ParenExpr:
		x, err := q.render(e.X)
		return "(" + x + ")", err

	case *ast.ArrayType:
		elt, err := q.render(e.Elt)
		if err != nil {
			return "", err
		}
		if e.Len == nil {
			return "[]" + elt, nil
		}
		return "[" + types.ExprString(e.Len) + "]" + elt, nil

	case *ast.MapType:
		key, err := q.render(e.Key)
		if err != nil {
			return "", err
		}
		value, err := q.render(e.Value)
		if err != nil {
			return "", err
		}
		return "map[" + key + "]" + value, nil

	case *ast.ChanType:
		value, err := q.render(e.Value)
		if err != nil {
			return "", err
		}
		switch e.Dir {
		case ast.SEND:
			return "chan<- " + value, nil
		case ast.RECV:
			return "<-chan " + value, nil
		default:
			return "chan " + value, nil
		}

	case *ast.IndexExpr:
		return q.renderGeneric(e.X, []ast.Expr{e.Index})

	case *ast.IndexListExpr:
		return q.renderGeneric(e.X, e.Indices)

	case *ast.FuncType:
		return q.renderFunc(e)

	case *ast.InterfaceType, *ast.StructType:
		// 匿名接口和结构体原样输出
		return types.ExprString(e), nil
	}

	return "", fmt.Errorf("不支持的类型表达式 %s", types.ExprString(expr))
}

func (q *qualifier) renderGeneric(x ast.Expr, indices []ast.Expr) (string, error) {
	base, err := q.render(x)
	if err != nil {
		return "", err
	}
	args, err := q.renderList(indices)
	if err != nil {
		return "", err
	}
	return base + "[" + strings.Join(args, ", ") + "]", nil
}

func (q *qualifier) renderList(exprs []ast.Expr) ([]string, error) {
	result := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		s, err := q.render(expr)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

func (q *qualifier) renderFunc(fn *ast.FuncType) (string, error) {
	params, err := q.renderFields(fn.Params)
	if err != nil {
		return "", err
	}
	s := "func(" + strings.Join(params, ", ") + ")"

	results, err := q.renderFields(fn.Results)
	if err != nil {
		return "", err
	}
	switch len(results) {
	case 0:
	case 1:
		s += " " + results[0]
	default:
		s += " (" + strings.Join(results, ", ") + ")"
	}
	return s, nil
}

// renderFields 渲染参数列表，忽略参数名
func (q *qualifier) renderFields(fields *ast.FieldList) ([]string, error) {
	if fields == nil {
		return nil, nil
	}
	var result []string
	for _, field := range fields.List {
		var typ string
		var err error
		if ellipsis, ok := field.Type.(*ast.Ellipsis); ok {
			typ, err = q.render(ellipsis.Elt)
			typ = "..." + typ
		} else {
			typ, err = q.render(field.Type)
		}
		if err != nil {
			return nil, err
		}
		for range max(1, len(field.Names)) {
			result = append(result, typ)
		}
	}
	return result, nil
}
