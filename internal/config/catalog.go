package config

import (
	"errors"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"gopkg.in/yaml.v3"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
)

var (
	ErrUnmarshalCatalogSeeds = errors.New("failed to unmarshal application catalog seeds")
	ErrEmptyApplicationSlug  = errors.New("application seed slug cannot be empty")
)

// DefaultApplicationSeeds is the built-in installable application list used
// when the config does not override the catalog.
var DefaultApplicationSeeds = []ApplicationSeed{
	{Name: "CRM", Slug: "crm", Category: "sales"},
	{Name: "Helpdesk", Slug: "helpdesk", Category: "support"},
	{Name: "Invoicing", Slug: "invoicing", Category: "finance"},
	{Name: "Analytics", Slug: "analytics", Category: "insights"},
}

// LoadSeeds returns the configured application catalog, falling back to the
// built-in list when no override is configured.
func (c *Catalog) LoadSeeds() ([]ApplicationSeed, error) {
	value, err := commoncfg.LoadValueFromSourceRef(c.Applications)
	if err != nil || len(value) == 0 {
		return DefaultApplicationSeeds, nil
	}

	var seeds []ApplicationSeed

	err = yaml.Unmarshal(value, &seeds)
	if err != nil {
		return nil, errs.Wrap(ErrUnmarshalCatalogSeeds, err)
	}

	for _, seed := range seeds {
		if seed.Slug == "" {
			return nil, ErrEmptyApplicationSlug
		}
	}

	return seeds, nil
}
