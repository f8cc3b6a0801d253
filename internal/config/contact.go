package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quimera/domains/internal/model"
)

// LoadRegistrantContact reads the default registrant contact from a YAML
// file. Used when a purchase request carries no contact information of its
// own.
func LoadRegistrantContact(path string) (*model.RegistrantContact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registrant contact file: %w", err)
	}

	var contact model.RegistrantContact
	if err := yaml.Unmarshal(data, &contact); err != nil {
		return nil, fmt.Errorf("parse registrant contact file: %w", err)
	}

	if contact.Email == "" {
		return nil, fmt.Errorf("registrant contact file %s: email is required", path)
	}
	return &contact, nil
}
