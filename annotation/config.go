package annotation

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/donutnomad/restgen/model"
	"gopkg.in/yaml.v3"
)

// typeRefPrefix 配置文件中以该前缀开头的字符串属性会被解析为类型引用
const typeRefPrefix = "type:"

// FileConfig 翻译配置文件
//
//	translations:
//	  - source: Label
//	    target: rest.Label
//	  - source: EmbeddedResource
//	    target: json.Deserialize
//	    attributes:
//	      contentUsing: type:github.com/donutnomad/restgen/rest.EmbeddedChildDecoder
type FileConfig struct {
	Translations []TranslationConfig `yaml:"translations"`
}

// TranslationConfig 单条翻译配置
type TranslationConfig struct {
	Source     string         `yaml:"source"`
	Target     string         `yaml:"target"`
	Attributes map[string]any `yaml:"attributes"`
}

// LoadFile 从 YAML 文件读取翻译规则并注册到 r
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开注解配置失败: %w", err)
	}
	defer f.Close()

	if err := r.Load(f); err != nil {
		return fmt.Errorf("加载注解配置 %s 失败: %w", path, err)
	}
	return nil
}

// Load 从 reader 读取 YAML 翻译规则并注册到 r
func (r *Registry) Load(reader io.Reader) error {
	var cfg FileConfig
	if err := yaml.NewDecoder(reader).Decode(&cfg); err != nil && err != io.EOF {
		return fmt.Errorf("解析 YAML 失败: %w", err)
	}

	for i, t := range cfg.Translations {
		attrs := make(map[string]any, len(t.Attributes))
		for k, v := range t.Attributes {
			attrs[k] = normalizeValue(v)
		}
		if err := r.Register(t.Source, t.Target, attrs); err != nil {
			return fmt.Errorf("第 %d 条翻译: %w", i+1, err)
		}
	}
	return nil
}

// normalizeValue 将 YAML 解码出的值归一为 string/bool/int64/float64/TypeRef
func normalizeValue(v any) any {
	switch val := v.(type) {
	case string:
		if ref, ok := strings.CutPrefix(val, typeRefPrefix); ok {
			return model.TypeRef(strings.TrimSpace(ref))
		}
		return val
	case int:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
