package compose

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/whalebone/local-resolver-agent/models"
)

const (
	keyVersion  = "version"
	keyServices = "services"

	// DefaultVersion is assumed for documents without a version key.
	DefaultVersion = "1"
)

// SupportedVersions lists the document versions the agent accepts.
var SupportedVersions = []string{"1", "3"}

// Document is a parsed service document. Services holds the raw fragment of
// each service keyed by service name; it is nil when the document has no
// services section.
type Document struct {
	Version  string
	Services map[string]any
}

// Names returns the service names of the document.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Services))
	for name := range d.Services {
		names = append(names, name)
	}
	return names
}

// Parse reads a service document. A document without a version key is
// treated as a bare services map of version 1.
func Parse(raw []byte) (*Document, error) {
	var node any
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, models.WrapError(models.KindSpecFormat, err, "parse service document")
	}
	content, ok := toStringMap(node)
	if !ok {
		return nil, models.NewError(models.KindSpecFormat, "service document must be a mapping, got %T", node)
	}

	rawVersion, versioned := content[keyVersion]
	if !versioned {
		return &Document{Version: DefaultVersion, Services: content}, nil
	}

	doc := &Document{Version: versionString(rawVersion)}
	if rawServices, ok := content[keyServices]; ok && rawServices != nil {
		services, ok := toStringMap(rawServices)
		if !ok {
			return nil, models.NewError(models.KindSpecFormat, "services section must be a mapping, got %T", rawServices)
		}
		doc.Services = services
	}
	return doc, nil
}

// Validate checks the version and the presence of the services section.
func Validate(doc *Document) error {
	if doc == nil {
		return models.NewError(models.KindMissingSection, "no document")
	}
	supported := false
	for _, v := range SupportedVersions {
		if doc.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return models.NewError(models.KindVersionUnsupported,
			"unsupported document version %q (supported: %s)", doc.Version, strings.Join(SupportedVersions, ", "))
	}
	if doc.Services == nil {
		return models.NewError(models.KindMissingSection, "document has no %s section", keyServices)
	}
	return nil
}

// ParseAndValidate is Parse followed by Validate.
func ParseAndValidate(raw []byte) (*Document, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func versionString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// toStringMap accepts both decoded mapping shapes yaml.v3 can produce.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
