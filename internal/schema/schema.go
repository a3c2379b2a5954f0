package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldType groups column types for compatibility scoring.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumeric
	TypeBoolean
	TypeDatetime
)

func (t FieldType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeDatetime:
		return "datetime"
	default:
		return "string"
	}
}

func (t FieldType) MarshalYAML() (any, error) { return t.String(), nil }

func (t *FieldType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	ft, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = ft
	return nil
}

func (t FieldType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "string", "text", "":
		return TypeString, nil
	case "numeric", "number", "integer", "float":
		return TypeNumeric, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "datetime", "date", "timestamp":
		return TypeDatetime, nil
	}
	return TypeString, fmt.Errorf("unknown field type %q", s)
}

// Field is one canonical column of the target schema.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required"`
	Multivalue  bool      `yaml:"multivalue" json:"multivalue"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Aliases     []string  `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// Schema is the ordered canonical target schema plus its alias dictionary.
// Loaded once at startup; read-only afterwards, safe to share across requests.
type Schema struct {
	Fields []Field

	byNorm  map[string]string // normalized canonical name -> canonical name
	byAlias map[string]string // normalized alias -> canonical name
	byName  map[string]*Field
}

type schemaFile struct {
	Fields []Field `yaml:"fields"`
}

// New builds a Schema from a field list, indexing canonical names and
// aliases by their normalized form. Alias collisions across distinct
// targets are configuration errors.
func New(fields []Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema: no fields defined")
	}
	s := &Schema{
		Fields:  fields,
		byNorm:  make(map[string]string, len(fields)),
		byAlias: make(map[string]string),
		byName:  make(map[string]*Field, len(fields)),
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return nil, fmt.Errorf("schema: field %d has no name", i)
		}
		norm := Normalize(f.Name)
		if prev, ok := s.byNorm[norm]; ok {
			return nil, fmt.Errorf("schema: %q and %q normalize to the same name", prev, f.Name)
		}
		s.byNorm[norm] = f.Name
		s.byName[f.Name] = f
		for _, a := range f.Aliases {
			an := Normalize(a)
			if an == "" {
				continue
			}
			if prev, ok := s.byAlias[an]; ok && prev != f.Name {
				return nil, fmt.Errorf("schema: alias %q claimed by both %q and %q", a, prev, f.Name)
			}
			s.byAlias[an] = f.Name
		}
	}
	return s, nil
}

// LoadFile reads a schema definition from YAML.
func LoadFile(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	var sf schemaFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}
	return New(sf.Fields)
}

// Lookup returns the field for a canonical name.
func (s *Schema) Lookup(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// ByNormalized resolves a normalized source name to a canonical name.
func (s *Schema) ByNormalized(norm string) (string, bool) {
	name, ok := s.byNorm[norm]
	return name, ok
}

// ByAlias resolves a normalized source name through the alias dictionary.
func (s *Schema) ByAlias(norm string) (string, bool) {
	name, ok := s.byAlias[norm]
	return name, ok
}

// Default is the built-in canonical HR schema, used when no schema file
// is configured.
func Default() *Schema {
	s, err := New([]Field{
		{Name: "CANDIDATE_ID", Type: TypeString, Required: true,
			Description: "stable identifier of the person in the source system",
			Aliases:     []string{"PersonID", "employee_id", "emp_id", "staff_number", "personnel_number"}},
		{Name: "FIRST_NAME", Type: TypeString, Required: true,
			Description: "given name",
			Aliases:     []string{"fname", "given_name", "forename"}},
		{Name: "LAST_NAME", Type: TypeString, Required: true,
			Description: "family name",
			Aliases:     []string{"lname", "surname", "family_name"}},
		{Name: "EMAIL", Type: TypeString, Required: true, Multivalue: true,
			Description: "work e-mail addresses",
			Aliases:     []string{"WorkEmails", "mail", "e_mail", "email_address"}},
		{Name: "PHONE", Type: TypeString, Multivalue: true,
			Description: "contact phone numbers",
			Aliases:     []string{"mobile", "telephone", "phone_number"}},
		{Name: "DEPARTMENT", Type: TypeString,
			Description: "organizational unit",
			Aliases:     []string{"dept", "division", "org_unit", "business_unit"}},
		{Name: "JOB_TITLE", Type: TypeString,
			Description: "position or role title",
			Aliases:     []string{"position", "role", "title"}},
		{Name: "HIRE_DATE", Type: TypeDatetime,
			Description: "date of hire",
			Aliases:     []string{"start_date", "date_of_joining", "joined"}},
		{Name: "BIRTH_DATE", Type: TypeDatetime,
			Description: "date of birth",
			Aliases:     []string{"dob", "date_of_birth"}},
		{Name: "SALARY", Type: TypeNumeric,
			Description: "base salary amount",
			Aliases:     []string{"base_salary", "compensation", "pay"}},
		{Name: "IS_ACTIVE", Type: TypeBoolean,
			Description: "whether the employment is currently active",
			Aliases:     []string{"active", "employment_status", "enabled"}},
		{Name: "MANAGER", Type: TypeString,
			Description: "direct manager",
			Aliases:     []string{"supervisor", "reports_to", "manager_name"}},
		{Name: "LOCATION", Type: TypeString,
			Description: "office or work location",
			Aliases:     []string{"office", "site", "city", "work_location"}},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return s
}
