package plugin

import (
	"strings"
	"testing"
)

// mockGenerator 用于测试的 mock 生成器
type mockGenerator struct {
	BaseGenerator
}

func (m *mockGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	return NewGenerateResult(), nil
}

type helpParams struct {
	Param1 string `param:"name=param1,required=true,description=Required parameter"`
	Param2 string `param:"name=param2,default=default_value,description=Optional parameter"`
}

func TestFormatHelpText(t *testing.T) {
	registry := NewRegistry()

	gen := &mockGenerator{BaseGenerator: *NewBaseGenerator("test-generator", "TestAnnotation").WithParams(helpParams{})}
	if err := registry.Register(gen); err != nil {
		t.Fatalf("Failed to register generator: %v", err)
	}

	helpText := FormatHelpText(registry)

	expectedContents := []string{
		"@TestAnnotation",
		"test-generator",
		"param1 (必填)",
		"param2",
		"[默认: default_value]",
		"Required parameter",
		"Optional parameter",
		"示例:",
		"@TestAnnotation(param2=default_value)",
	}
	for _, expected := range expectedContents {
		if !strings.Contains(helpText, expected) {
			t.Errorf("Help text should contain '%s', got:\n%s", expected, helpText)
		}
	}
}

func TestFormatHelpText_Alignment(t *testing.T) {
	registry := NewRegistry()
	gen := &mockGenerator{BaseGenerator: *NewBaseGenerator("g", "A").WithParams(helpParams{})}
	registry.MustRegister(gen)

	helpText := FormatHelpText(registry)

	// 描述列按显示宽度对齐，中文字符占两列
	var cols []int
	for _, line := range strings.Split(helpText, "\n") {
		for _, desc := range []string{"Required parameter", "Optional parameter"} {
			if i := strings.Index(line, desc); i >= 0 {
				cols = append(cols, displayWidth(line[:i]))
			}
		}
	}
	if len(cols) != 2 || cols[0] != cols[1] {
		t.Errorf("expected aligned description columns, got %v in:\n%s", cols, helpText)
	}
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x2E80 {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func TestFormatHelpText_MultipleGenerators(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&mockGenerator{BaseGenerator: *NewBaseGenerator("generator2", "Ann2")})
	registry.MustRegister(&mockGenerator{BaseGenerator: *NewBaseGenerator("generator1", "Ann1")})

	helpText := FormatHelpText(registry)

	i1 := strings.Index(helpText, "@Ann1 - generator1")
	i2 := strings.Index(helpText, "@Ann2 - generator2")
	if i1 < 0 || i2 < 0 {
		t.Fatalf("Help text should contain both generators, got:\n%s", helpText)
	}
	if i1 > i2 {
		t.Error("generators should be sorted by name")
	}
}

func TestFormatHelpText_EmptyRegistry(t *testing.T) {
	helpText := FormatHelpText(NewRegistry())

	expected := "(暂无已注册的生成器)"
	if !strings.Contains(helpText, expected) {
		t.Errorf("Expected '%s', got: %s", expected, helpText)
	}
}

func TestFormatParamDef(t *testing.T) {
	tests := []struct {
		name     string
		param    ParamDef
		expected []string
	}{
		{
			name:     "required param",
			param:    ParamDef{Name: "test", Required: true, Description: "Test parameter"},
			expected: []string{"test", "required", "Test parameter"},
		},
		{
			name:     "optional param with default",
			param:    ParamDef{Name: "opt", Default: "default", Description: "Optional param"},
			expected: []string{"opt", "optional", "default=default", "Optional param"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatParamDef(tt.param)
			for _, exp := range tt.expected {
				if !strings.Contains(result, exp) {
					t.Errorf("FormatParamDef() should contain '%s', got: %s", exp, result)
				}
			}
		})
	}
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([][2]string{
		{"RemoteResource", "rest.RemoteResource"},
		{"中文", "x"},
	}, "  ")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if displayWidth(lines[0][:strings.Index(lines[0], "rest.")]) != displayWidth(lines[1][:strings.LastIndex(lines[1], "x")]) {
		t.Errorf("expected aligned second column, got:\n%s", out)
	}
}
