package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whalebone/local-resolver-agent/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantVersion  string
		wantServices []string
		wantKind     models.ErrorKind
	}{
		{
			name:         "unversioned document becomes services of version 1",
			raw:          "resolver:\n  image: whalebone/resolver:1.0\nlr-agent:\n  image: whalebone/agent:2.0\n",
			wantVersion:  "1",
			wantServices: []string{"resolver", "lr-agent"},
		},
		{
			name:         "version 3 with services",
			raw:          "version: '3'\nservices:\n  resolver:\n    image: whalebone/resolver:1.0\n",
			wantVersion:  "3",
			wantServices: []string{"resolver"},
		},
		{
			name:         "numeric version is stringified",
			raw:          "version: 3\nservices:\n  resolver:\n    image: r\n",
			wantVersion:  "3",
			wantServices: []string{"resolver"},
		},
		{
			name:         "json input is accepted",
			raw:          `{"version": "3", "services": {"resolver": {"image": "r"}}}`,
			wantVersion:  "3",
			wantServices: []string{"resolver"},
		},
		{
			name:     "unparsable input",
			raw:      "services: [unclosed",
			wantKind: models.KindSpecFormat,
		},
		{
			name:     "scalar document",
			raw:      "just a string",
			wantKind: models.KindSpecFormat,
		},
		{
			name:     "services section that is not a mapping",
			raw:      "version: '3'\nservices: [a, b]\n",
			wantKind: models.KindSpecFormat,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.raw))
			if tc.wantKind != models.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, models.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantVersion, doc.Version)
			assert.ElementsMatch(t, tc.wantServices, doc.Names())
		})
	}
}

func TestParseNestsUnversionedContent(t *testing.T) {
	raw := "resolver:\n  image: r\n  ports:\n    - \"53:53/udp\"\n"
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, DefaultVersion, doc.Version)
	fragment, err := Fragment(doc, "resolver")
	require.NoError(t, err)
	assert.Equal(t, "r", fragment["image"])
	assert.Equal(t, []any{"53:53/udp"}, fragment["ports"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		doc      *Document
		wantKind models.ErrorKind
	}{
		{name: "version 1", doc: &Document{Version: "1", Services: map[string]any{}}},
		{name: "version 3", doc: &Document{Version: "3", Services: map[string]any{}}},
		{name: "version 2 rejected", doc: &Document{Version: "2", Services: map[string]any{}}, wantKind: models.KindVersionUnsupported},
		{name: "version 3.7 rejected", doc: &Document{Version: "3.7", Services: map[string]any{}}, wantKind: models.KindVersionUnsupported},
		{name: "empty version rejected", doc: &Document{Services: map[string]any{}}, wantKind: models.KindVersionUnsupported},
		{name: "missing services", doc: &Document{Version: "3"}, wantKind: models.KindMissingSection},
		{name: "nil document", doc: nil, wantKind: models.KindMissingSection},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.doc)
			if tc.wantKind == models.KindUnknown {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, models.KindOf(err))
		})
	}
}

func TestParseAndValidateMissingServices(t *testing.T) {
	_, err := ParseAndValidate([]byte("version: '3'\nnetworks: {}\n"))
	require.Error(t, err)
	assert.Equal(t, models.KindMissingSection, models.KindOf(err))
}
