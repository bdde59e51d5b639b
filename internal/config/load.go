package config

import (
	"strings"

	"github.com/spf13/viper"

	"gocxx/internal/errors"
)

// Load reads the configuration file at path on top of the defaults. An empty
// path yields the defaults alone. Scalar settings may also come from GOCXX_*
// environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOCXX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and compiles the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Compile(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Defaults returns the compiled default configuration.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	config, err := LoadWithViper(v)
	if err != nil {
		panic(errors.AssertionFailedf("default configuration does not compile: %v", err))
	}
	return config
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("module", "module")
	v.SetDefault("package", "bindings")
	v.SetDefault("prefix", "gocxx")
	v.SetDefault("runtime_import", "gocxx/pkg/bindrt")
	v.SetDefault("namespaces", []string{"cv"})
	v.SetDefault("includes", []string{})
	v.SetDefault("cgo_cflags", "")
	v.SetDefault("cgo_ldflags", "")
	v.SetDefault("class_ignore", []string{})
	v.SetDefault("const_ignore", []string{`^CV_EXPORTS`, `^CV_WRAP`, `^CV_PROP`})
	v.SetDefault("func_unsafe", []string{})
	v.SetDefault("forced_interface", []string{})
	v.SetDefault("force_not_value_record", []string{})

	primitives := make([]map[string]any, 0, len(defaultPrimitives))
	for _, p := range defaultPrimitives {
		primitives = append(primitives, map[string]any{
			"spelling": p.Spelling,
			"native":   p.Native,
			"cgo":      p.Cgo,
			"go":       p.Go,
		})
	}
	v.SetDefault("primitives", primitives)

	replacements := make([]map[string]any, 0, len(defaultTypeReplace))
	for _, r := range defaultTypeReplace {
		replacements = append(replacements, map[string]any{"from": r.From, "to": r.To})
	}
	v.SetDefault("type_replace", replacements)
}

var defaultTypeReplace = []TypeRewrite{
	{"InputArray", "cv::Mat"},
	{"InputArrayOfArrays", "vector<cv::Mat>"},
	{"OutputArray", "cv::Mat"},
	{"OutputArrayOfArrays", "vector<cv::Mat>"},
	{"InputOutputArray", "cv::Mat"},
	{"InputOutputArrayOfArrays", "vector<cv::Mat>"},
	{"_InputArray", "cv::Mat"},
	{"_OutputArray", "cv::Mat"},
	{"_InputOutputArray", "cv::Mat"},
	{"_Range", "cv::Range"},
	{"Point_<int>", "Point2i"},
	{"Point_<int64>", "Point2l"},
	{"Point_<float>", "Point2f"},
	{"Point_<double>", "Point2d"},
	{"Rect_<int>", "Rect2i"},
	{"Rect_<float>", "Rect2f"},
	{"Rect_<double>", "Rect2d"},
	{"Size_<int64>", "Size2l"},
	{"Size_<float>", "Size2f"},
	{"Size_<double>", "Size2d"},
	{"Scalar_<double>", "Scalar"},
}

var defaultPrimitives = []Primitive{
	{"void", "void", "", ""},
	{"bool", "bool", "bool", "bool"},
	{"char", "char", "char", "int8"},
	{"schar", "signed char", "schar", "int8"},
	{"signed char", "signed char", "schar", "int8"},
	{"uchar", "unsigned char", "uchar", "uint8"},
	{"unsigned char", "unsigned char", "uchar", "uint8"},
	{"short", "short", "short", "int16"},
	{"ushort", "unsigned short", "ushort", "uint16"},
	{"unsigned short", "unsigned short", "ushort", "uint16"},
	{"int", "int", "int", "int32"},
	{"unsigned", "unsigned int", "uint", "uint32"},
	{"uint", "unsigned int", "uint", "uint32"},
	{"unsigned int", "unsigned int", "uint", "uint32"},
	{"uint32_t", "uint32_t", "uint32_t", "uint32"},
	{"int64", "int64_t", "int64_t", "int64"},
	{"int64_t", "int64_t", "int64_t", "int64"},
	{"__int64", "int64_t", "int64_t", "int64"},
	{"uint64", "uint64_t", "uint64_t", "uint64"},
	{"uint64_t", "uint64_t", "uint64_t", "uint64"},
	{"unsigned long long", "unsigned long long", "ulonglong", "uint64"},
	{"size_t", "size_t", "size_t", "uint"},
	{"float", "float", "float", "float32"},
	{"double", "double", "double", "float64"},
}
