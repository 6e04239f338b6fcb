// Package repository loads and validates the YAML policy document that defines
// the upstream API and every tenant environment. A document failing validation
// rejects the whole load; the gateway never starts with a partial policy set.
package repository

import (
	"fmt"
	"os"
	"regexp"

	validation "github.com/jellydator/validation"
	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/pdns-gateway/internal/errors"
	"github.com/allisson/pdns-gateway/internal/policy/domain"
)

// fingerprintPattern matches a SHA-512 hex digest.
var fingerprintPattern = regexp.MustCompile(`^[0-9a-fA-F]{128}$`)

// Document is the validated policy document: the upstream API coordinates plus
// the constructed, immutable environments.
type Document struct {
	APIBaseURL   string
	APIToken     string
	VerifySSL    bool
	IndexEnabled bool
	IndexHTML    string
	Environments []*domain.Environment
}

// defaultIndexHTML is served on the root route when the document does not
// override it.
const defaultIndexHTML = `<html>
    <head>
        <title>PowerDNS API Gateway</title>
    </head>
    <body>
        <center>
        <h1>PowerDNS API Gateway</h1>
        <q>The Domain Name Server (DNS) is the Achilles heel of the Web.<br>
        The important thing is that it's managed responsibly.</q>
        </center>
    </body>
</html>
`

type zoneServicesYAML struct {
	ACME bool `yaml:"acme"`
}

type zoneYAML struct {
	Name         string           `yaml:"name"`
	Regex        bool             `yaml:"regex"`
	Description  string           `yaml:"description"`
	Records      []string         `yaml:"records"`
	RegexRecords []string         `yaml:"regex_records"`
	Services     zoneServicesYAML `yaml:"services"`
	Admin        bool             `yaml:"admin"`
	Subzones     bool             `yaml:"subzones"`
	AllRecords   bool             `yaml:"all_records"`
	ReadOnly     bool             `yaml:"read_only"`
}

// Validate checks the structural requirements of a zone grant.
func (z zoneYAML) Validate() error {
	return validation.ValidateStruct(&z,
		validation.Field(&z.Name, validation.Required),
	)
}

type environmentYAML struct {
	Name             string     `yaml:"name"`
	TokenSHA512      string     `yaml:"token_sha512"`
	Zones            []zoneYAML `yaml:"zones"`
	GlobalReadOnly   bool       `yaml:"global_read_only"`
	GlobalSearch     bool       `yaml:"global_search"`
	GlobalTSIGKeys   bool       `yaml:"global_tsigkeys"`
	GlobalCryptokeys bool       `yaml:"global_cryptokeys"`
	MetricsProxy     bool       `yaml:"metrics_proxy"`
	AuditLogAccess   bool       `yaml:"audit_log_access"`
}

// Validate checks the structural requirements of an environment: a non-empty
// name and a token fingerprint shaped like a SHA-512 hex digest.
func (e environmentYAML) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.TokenSHA512,
			validation.Required,
			validation.Match(fingerprintPattern).
				Error(fmt.Sprintf("must be a %d character SHA-512 hex digest", domain.FingerprintLength)),
		),
	)
}

type documentYAML struct {
	PDNSAPIURL       string            `yaml:"pdns_api_url"`
	PDNSAPIToken     string            `yaml:"pdns_api_token"`
	PDNSAPIVerifySSL *bool             `yaml:"pdns_api_verify_ssl"`
	IndexEnabled     *bool             `yaml:"index_enabled"`
	IndexHTML        string            `yaml:"index_html"`
	Environments     []environmentYAML `yaml:"environments"`
}

// Validate checks the top-level requirements of the policy document.
func (d documentYAML) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.PDNSAPIURL, validation.Required),
		validation.Field(&d.PDNSAPIToken, validation.Required),
	)
}

// FileRepository loads policy documents from a YAML file on disk.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository reading from the given path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the file the repository reads from.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads, validates and constructs the policy document. Any invalid
// field anywhere in the document fails the whole load.
func (r *FileRepository) Load() (*Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read policy document")
	}
	return Parse(data)
}

// Parse validates and constructs a policy document from raw YAML.
func Parse(data []byte) (*Document, error) {
	var raw documentYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	if err := raw.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	doc := &Document{
		APIBaseURL:   raw.PDNSAPIURL,
		APIToken:     raw.PDNSAPIToken,
		VerifySSL:    true,
		IndexEnabled: true,
		IndexHTML:    raw.IndexHTML,
	}
	if raw.PDNSAPIVerifySSL != nil {
		doc.VerifySSL = *raw.PDNSAPIVerifySSL
	}
	if raw.IndexEnabled != nil {
		doc.IndexEnabled = *raw.IndexEnabled
	}
	if doc.IndexHTML == "" {
		doc.IndexHTML = defaultIndexHTML
	}

	seen := make(map[string]string, len(raw.Environments))
	for _, rawEnv := range raw.Environments {
		if err := rawEnv.Validate(); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
				fmt.Sprintf("environment %q: %v", rawEnv.Name, err))
		}

		if previous, ok := seen[rawEnv.TokenSHA512]; ok {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
				fmt.Sprintf("environments %q and %q share a token fingerprint", previous, rawEnv.Name))
		}
		seen[rawEnv.TokenSHA512] = rawEnv.Name

		zones := make([]*domain.Zone, 0, len(rawEnv.Zones))
		for _, rawZone := range rawEnv.Zones {
			if err := rawZone.Validate(); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
					fmt.Sprintf("environment %q zone %q: %v", rawEnv.Name, rawZone.Name, err))
			}

			zone, err := domain.NewZone(domain.ZoneInput{
				Name:         rawZone.Name,
				Description:  rawZone.Description,
				IsRegex:      rawZone.Regex,
				Subzones:     rawZone.Subzones,
				Admin:        rawZone.Admin,
				AllRecords:   rawZone.AllRecords,
				ReadOnly:     rawZone.ReadOnly,
				Records:      rawZone.Records,
				RegexRecords: rawZone.RegexRecords,
				ACMEEnabled:  rawZone.Services.ACME,
			})
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
					fmt.Sprintf("environment %q zone %q: %v", rawEnv.Name, rawZone.Name, err))
			}
			zones = append(zones, zone)
		}

		doc.Environments = append(doc.Environments, domain.NewEnvironment(domain.EnvironmentInput{
			Name:             rawEnv.Name,
			TokenFingerprint: rawEnv.TokenSHA512,
			Zones:            zones,
			GlobalReadOnly:   rawEnv.GlobalReadOnly,
			GlobalSearch:     rawEnv.GlobalSearch,
			GlobalTSIGKeys:   rawEnv.GlobalTSIGKeys,
			GlobalCryptokeys: rawEnv.GlobalCryptokeys,
			MetricsProxy:     rawEnv.MetricsProxy,
			AuditLogAccess:   rawEnv.AuditLogAccess,
		}))
	}

	return doc, nil
}
