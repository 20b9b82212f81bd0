package quality

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile wraps every profile file decoding or validation failure
var ErrInvalidProfile = errors.New("invalid dataset profile")

// AllowedValues is a categorical allow-list for one field
type AllowedValues struct {
	Field  string   `yaml:"field" json:"field"`
	Values []string `yaml:"values" json:"values"`
}

// Contains reports whether v is in the allow-list (exact match)
func (a AllowedValues) Contains(v string) bool {
	for _, x := range a.Values {
		if x == v {
			return true
		}
	}
	return false
}

// Range is an inclusive numeric bound for one field
type Range struct {
	Field string  `yaml:"field" json:"field"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
}

// Profile bundles the dataset-specific rules for one dataset type
type Profile struct {
	Name           string          `yaml:"name" json:"name"`
	KeyFields      []string        `yaml:"key_fields" json:"key_fields"`           // uniqueness key
	CodeFields     []string        `yaml:"code_fields" json:"code_fields"`         // length consistency
	AllowedValues  []AllowedValues `yaml:"allowed_values" json:"allowed_values"`   // validity allow-lists
	PhysicalFields []string        `yaml:"physical_fields" json:"physical_fields"` // non-negative + outliers
	Ranges         []Range         `yaml:"ranges" json:"ranges"`                   // applied only when every range field exists
}

// ProfileError reports a profile constraint violation
type ProfileError struct {
	Profile string
	Field   string
	Message string
}

func (e ProfileError) Error() string {
	return fmt.Sprintf("profile %q: %s: %s", e.Profile, e.Field, e.Message)
}

func (e ProfileError) Unwrap() error { return ErrInvalidProfile }

// Validate checks a profile's internal constraints
func (p Profile) Validate() error {
	if p.Name == "" {
		return ProfileError{p.Name, "name", "required"}
	}
	for i, av := range p.AllowedValues {
		if av.Field == "" {
			return ProfileError{p.Name, fmt.Sprintf("allowed_values[%d].field", i), "required"}
		}
		if len(av.Values) == 0 {
			return ProfileError{p.Name, fmt.Sprintf("allowed_values[%d].values", i), "must not be empty"}
		}
	}
	for i, r := range p.Ranges {
		if r.Field == "" {
			return ProfileError{p.Name, fmt.Sprintf("ranges[%d].field", i), "required"}
		}
		if r.Min > r.Max {
			return ProfileError{p.Name, fmt.Sprintf("ranges[%d]", i), "min must not exceed max"}
		}
	}
	return nil
}

// Registry maps dataset-type names to profiles.
// Lookups happen once per dataset per analysis; unregistered types use the generic path.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry builds a registry from profiles; later duplicates replace earlier ones
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.Name] = p
	}
	return r
}

// DefaultRegistry holds the six standard supply-chain master data types
// ⭐ SSOT: 데이터셋 타입별 규칙
func DefaultRegistry() *Registry {
	return NewRegistry(
		Profile{
			Name:       "Products",
			KeyFields:  []string{"ProductID"},
			CodeFields: []string{"ProductID"},
			AllowedValues: []AllowedValues{
				{Field: "ProductCategory", Values: []string{"RAW", "WIP", "FG", "SPARE", "SERVICE"}},
				{Field: "UnitOfMeasure", Values: []string{"EA", "KG", "L", "M", "PC", "CS"}},
			},
			PhysicalFields: []string{"Weight", "Length", "Width", "Height", "Volume"},
		},
		Profile{
			Name:       "Locations",
			KeyFields:  []string{"LocationID"},
			CodeFields: []string{"LocationID"},
			AllowedValues: []AllowedValues{
				{Field: "LocationType", Values: []string{"PLANT", "DC", "WAREHOUSE", "STORE", "SUPPLIER", "CUSTOMER"}},
			},
			Ranges: []Range{
				{Field: "Latitude", Min: -90, Max: 90},
				{Field: "Longitude", Min: -180, Max: 180},
			},
		},
		Profile{Name: "Customers", KeyFields: []string{"CustomerID"}},
		Profile{Name: "Suppliers", KeyFields: []string{"SupplierID"}},
		Profile{Name: "Time Profiles", KeyFields: []string{"TimeProfileID"}},
		Profile{Name: "Resource Plans", KeyFields: []string{"ResourceID"}},
	)
}

// Lookup returns the profile registered for name
func (r *Registry) Lookup(name string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	return p, ok
}

// Register adds or replaces a profile
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
	return nil
}

// Names returns registered dataset types in lexical order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fingerprint hashes the registry contents (canonical JSON, names sorted)
// so runs can record which rule set produced them.
func (r *Registry) Fingerprint() string {
	names := r.Names()
	r.mu.RLock()
	ordered := make([]Profile, 0, len(names))
	for _, n := range names {
		ordered = append(ordered, r.profiles[n])
	}
	r.mu.RUnlock()

	data, err := json.Marshal(ordered)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// profileFile is the YAML document layout
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads profiles from a YAML file.
// Unknown fields fail immediately so typos never silently disable a rule.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates a YAML profiles document
func ParseProfiles(data []byte) ([]Profile, error) {
	var doc profileFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	for _, p := range doc.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Profiles, nil
}

// LoadFile merges the profiles of a YAML file into the registry
func (r *Registry) LoadFile(path string) error {
	profiles, err := LoadProfiles(path)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
