package compose

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/whalebone/local-resolver-agent/models"
)

// fieldParser converts the raw value of one document field. A nil result
// leaves the output unset.
type fieldParser func(t *Translator, v any) (any, error)

// fieldDescriptor maps one document field onto one ServiceSpec key (the
// mapstructure tag of the target field).
type fieldDescriptor struct {
	Field  string
	Output string
	Parse  fieldParser
}

// fieldTable drives Translate. Later entries win when two fields share an
// output, so network_mode overrides the legacy net field.
var fieldTable = []fieldDescriptor{
	{Field: "image", Output: "image", Parse: parseString},
	{Field: "name", Output: "name", Parse: parseString},
	{Field: "net", Output: "network_mode", Parse: parseString},
	{Field: "network_mode", Output: "network_mode", Parse: parseString},
	{Field: "ports", Output: "ports", Parse: parsePortsField},
	{Field: "volumes", Output: "volumes", Parse: parseVolumesField},
	{Field: "environment", Output: "environment", Parse: parseEnvironment},
	{Field: "labels", Output: "labels", Parse: parseStringMap},
	{Field: "tty", Output: "tty", Parse: parseBool},
	{Field: "privileged", Output: "privileged", Parse: parseBool},
	{Field: "stdin_open", Output: "stdin_open", Parse: parseBool},
	{Field: "cpu_shares", Output: "cpu_shares", Parse: parseInt},
	{Field: "restart", Output: "restart_policy", Parse: parseRestartField},
	{Field: "logging", Output: "log_config", Parse: parseLogging},
}

// Translator converts service fragments into runtime parameters.
type Translator struct {
	env EnvResolver
}

// NewTranslator returns a translator resolving special environment values
// through env. A nil env disables substitution.
func NewTranslator(env EnvResolver) *Translator {
	return &Translator{env: env}
}

// Translate converts the fragment of service name. Unknown fields are
// ignored. When the fragment has no name field the service name is used.
func (t *Translator) Translate(name string, fragment map[string]any) (models.ServiceSpec, error) {
	var spec models.ServiceSpec

	normalized, _ := coerceNumbers(fragment).(map[string]any)
	out := make(map[string]any, len(fieldTable))
	for _, d := range fieldTable {
		raw, ok := normalized[d.Field]
		if !ok {
			continue
		}
		v, err := d.Parse(t, raw)
		if err != nil {
			return spec, models.WrapError(models.KindOf(err), err, "service %q field %q", name, d.Field)
		}
		if v != nil {
			out[d.Output] = v
		}
	}

	if _, ok := out["log_config"]; !ok {
		legacy, err := legacyLogConfig(normalized)
		if err != nil {
			return spec, models.WrapError(models.KindOf(err), err, "service %q log_driver/log_opt", name)
		}
		if legacy != nil {
			out["log_config"] = legacy
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &spec,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return spec, models.WrapError(models.KindSpecFormat, err, "service %q", name)
	}
	if err := decoder.Decode(out); err != nil {
		return spec, models.WrapError(models.KindSpecFormat, err, "service %q", name)
	}
	if spec.Name == "" {
		spec.Name = name
	}
	if spec.Image == "" {
		return spec, models.NewError(models.KindSpecFormat, "service %q has no image", name)
	}
	return spec, nil
}

// Fragment returns the raw fragment of one service of doc.
func Fragment(doc *Document, name string) (map[string]any, error) {
	raw, ok := doc.Services[name]
	if !ok {
		return nil, models.NewError(models.KindSpecFormat, "service %q not found in document", name)
	}
	fragment, ok := toStringMap(raw)
	if !ok {
		return nil, models.NewError(models.KindSpecFormat, "service %q must be a mapping, got %T", name, raw)
	}
	return fragment, nil
}

// TranslateService translates one named service of doc.
func (t *Translator) TranslateService(doc *Document, name string) (models.ServiceSpec, error) {
	fragment, err := Fragment(doc, name)
	if err != nil {
		return models.ServiceSpec{}, err
	}
	return t.Translate(name, fragment)
}

// Specs translates every service of doc independently. Services that fail
// are reported in the error map and left out of the spec map.
func (t *Translator) Specs(doc *Document) (map[string]models.ServiceSpec, map[string]error) {
	specs := make(map[string]models.ServiceSpec, len(doc.Services))
	errs := make(map[string]error)
	for _, name := range sortedKeys(doc.Services) {
		spec, err := t.TranslateService(doc, name)
		if err != nil {
			errs[name] = err
			continue
		}
		specs[name] = spec
	}
	return specs, errs
}
