package legacy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Directory kinds.
const (
	KindRegular   = "regular"
	KindPersonal  = "personal"
	KindCollected = "collected"
)

// Tag IDs given to cards of the built-in directories.
const (
	PersonalTagID  = "system:personal"
	CollectedTagID = "system:collected"
)

// Book is a legacy address book export.
type Book struct {
	Directories []Directory `yaml:"directories"`
}

// Directory is one address book.
type Directory struct {
	// Name is the address book name; regular directories use it as tag.
	Name string `yaml:"name"`

	// Kind is regular (default), personal or collected.
	Kind string `yaml:"kind,omitempty"`

	Cards []Card `yaml:"cards"`

	Lists []MailingList `yaml:"lists,omitempty"`
}

// Card is a flat property map, e.g. {"FirstName": "Fone", "HomeCity": "Boneville"}.
type Card map[string]string

// MailingList groups cards of its directory by their PrimaryEmail.
type MailingList struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// LoadBook reads and validates a YAML address book export.
// Unknown keys are rejected.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read address book: %w", err)
	}
	return ParseBook(data)
}

// ParseBook parses and validates a YAML address book export.
func ParseBook(data []byte) (*Book, error) {
	var book Book
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateBook(&book); err != nil {
		return nil, fmt.Errorf("invalid address book: %w", err)
	}
	return &book, nil
}

func validateBook(b *Book) error {
	if len(b.Directories) == 0 {
		return fmt.Errorf("directories list is required and must be non-empty")
	}

	for i := range b.Directories {
		d := &b.Directories[i]
		if d.Name == "" {
			return fmt.Errorf("directories[%d]: name is required", i)
		}
		switch d.Kind {
		case "":
			d.Kind = KindRegular
		case KindRegular, KindPersonal, KindCollected:
		default:
			return fmt.Errorf("directories[%d]: unknown kind %q", i, d.Kind)
		}
		for j, l := range d.Lists {
			if l.Name == "" {
				return fmt.Errorf("directories[%d].lists[%d]: name is required", i, j)
			}
		}
	}
	return nil
}
