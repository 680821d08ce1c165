package plugin

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}
	slices.SortFunc(generators, func(a, b Generator) int {
		return strings.Compare(a.Name(), b.Name())
	})

	var sb strings.Builder

	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}
		mainAnnotation := annotations[0]
		paramDefs := gen.ParamDefs()

		sb.WriteString(fmt.Sprintf("  @%s - %s\n", mainAnnotation, gen.Name()))

		if len(paramDefs) > 0 {
			sb.WriteString("    参数:\n")

			labels := make([]string, len(paramDefs))
			width := 0
			for i, param := range paramDefs {
				labels[i] = paramLabel(param)
				width = max(width, runewidth.StringWidth(labels[i]))
			}
			for i, param := range paramDefs {
				sb.WriteString(fmt.Sprintf("      %s  %s\n",
					runewidth.FillRight(labels[i], width), param.Description))
			}
		}

		sb.WriteString("    示例:\n")
		sb.WriteString(fmt.Sprintf("      @%s\n", mainAnnotation))
		for _, param := range paramDefs {
			if param.Default != "" {
				sb.WriteString(fmt.Sprintf("      @%s(%s=%s)\n", mainAnnotation, param.Name, param.Default))
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func paramLabel(param ParamDef) string {
	label := param.Name
	if param.Required {
		label += " (必填)"
	}
	if param.Default != "" {
		label += fmt.Sprintf(" [默认: %s]", param.Default)
	}
	return label
}

// FormatParamDef 格式化单个参数定义
func FormatParamDef(param ParamDef) string {
	parts := []string{param.Name}

	if param.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "optional")
	}

	if param.Default != "" {
		parts = append(parts, fmt.Sprintf("default=%s", param.Default))
	}

	if param.Description != "" {
		parts = append(parts, param.Description)
	}

	return strings.Join(parts, ", ")
}

// FormatTable 将两列内容按显示宽度对齐，用于终端输出
func FormatTable(rows [][2]string, indent string) string {
	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row[0]))
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(indent)
		sb.WriteString(runewidth.FillRight(row[0], width))
		sb.WriteString("  ")
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
	return sb.String()
}
