// Package content loads the studio information shown on the about page and
// used for the booking form's style suggestions.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed about.toml
var defaultAbout string

// About is the studio information page.
type About struct {
	Name    string   `toml:"name"`
	Tagline string   `toml:"tagline"`
	Bio     string   `toml:"bio"`
	Styles  []string `toml:"styles"`
	Contact Contact  `toml:"contact"`
	Hours   []Hours  `toml:"hours"`
}

type Contact struct {
	Email     string `toml:"email"`
	Phone     string `toml:"phone"`
	Instagram string `toml:"instagram"`
	Location  string `toml:"location"`
}

type Hours struct {
	Days string `toml:"days"`
	Time string `toml:"time"`
}

// LoadAbout reads the TOML file at path, or the embedded default when path
// is empty.
func LoadAbout(path string) (*About, error) {
	var a About
	var (
		md  toml.MetaData
		err error
	)
	if strings.TrimSpace(path) == "" {
		md, err = toml.Decode(defaultAbout, &a)
	} else {
		md, err = toml.DecodeFile(path, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("about: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("about: unknown keys %v", keys)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *About) validate() error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return errors.New("about: name is required")
	}
	styles := a.Styles[:0]
	seen := map[string]bool{}
	for _, s := range a.Styles {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		styles = append(styles, s)
	}
	a.Styles = styles
	return nil
}
