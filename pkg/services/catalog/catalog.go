// Package catalog holds the lookup state built once per process from
// the current store generation: the variable allow-list, region name
// mappings per geography type, and selectable end dates per duration.
// It is the explicit, passed-down replacement for what the serving
// path would otherwise keep in process-wide globals.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite/observation"
)

type Catalog struct {
	variables []domain.Variable
	varByName map[string]domain.Variable

	regionName   map[int]string
	regionByType map[domain.GeoType][]domain.Region

	// endDates per duration, most recent first.
	endDates map[domain.Duration][]string
}

// New builds the catalog from the store's lookup tables and the
// variable-info file. Every listed variable must be a real metric
// column; anything else is a startup error, which keeps unvetted
// names out of query text.
func New(ctx context.Context, obsStore observation.Store, variableInfoPath string) (*Catalog, error) {
	variables, err := loadVariableInfo(variableInfoPath)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		variables:    variables,
		varByName:    make(map[string]domain.Variable, len(variables)),
		regionName:   make(map[int]string),
		regionByType: make(map[domain.GeoType][]domain.Region),
		endDates:     make(map[domain.Duration][]string),
	}
	for _, v := range variables {
		c.varByName[v.Name] = v
	}

	regions, err := obsStore.Regions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	for _, r := range regions {
		c.regionName[r.ID] = r.Name
		for _, g := range domain.GeoTypes() {
			if r.Type == g.RegionType() {
				c.regionByType[g] = append(c.regionByType[g], domain.Region{
					ID:   r.ID,
					Name: r.Name,
					Type: g,
				})
			}
		}
	}
	for _, g := range domain.GeoTypes() {
		rs := c.regionByType[g]
		sort.Slice(rs, func(i, j int) bool { return rs[i].Name < rs[j].Name })
	}

	periods, err := obsStore.TimePeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("load time periods: %w", err)
	}
	seen := make(map[domain.Duration]map[string]bool)
	for _, p := range periods {
		d := domain.Duration(p.Duration)
		if seen[d] == nil {
			seen[d] = make(map[string]bool)
		}
		if !seen[d][p.PeriodEnd] {
			seen[d][p.PeriodEnd] = true
			c.endDates[d] = append(c.endDates[d], p.PeriodEnd)
		}
	}
	for d := range c.endDates {
		// Descending so the most recent date comes first in dropdowns.
		sort.Sort(sort.Reverse(sort.StringSlice(c.endDates[d])))
	}

	return c, nil
}

func loadVariableInfo(path string) ([]domain.Variable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open variable info: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read variable info: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("variable info file %s has no entries", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"variable", "pretty_name", "key_var"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("variable info missing column %q", required)
		}
	}

	variables := make([]domain.Variable, 0, len(records)-1)
	for _, record := range records[1:] {
		v := domain.Variable{
			Name:       record[col["variable"]],
			PrettyName: record[col["pretty_name"]],
			Key:        record[col["key_var"]] == "true",
		}
		if !sqlite.IsMetricColumn(v.Name) {
			return nil, fmt.Errorf("variable %q is not a column of the observations table", v.Name)
		}
		variables = append(variables, v)
	}

	sort.Slice(variables, func(i, j int) bool { return variables[i].Name < variables[j].Name })
	return variables, nil
}

// Variables returns the dropdown list for the chosen kind.
func (c *Catalog) Variables(kind domain.VariableKind) []domain.Variable {
	if kind == domain.AllVariables {
		return append([]domain.Variable{}, c.variables...)
	}
	key := make([]domain.Variable, 0)
	for _, v := range c.variables {
		if v.Key {
			key = append(key, v)
		}
	}
	return key
}

func (c *Catalog) HasVariable(name string) bool {
	_, ok := c.varByName[name]
	return ok
}

func (c *Catalog) PrettyName(variable string) string {
	if v, ok := c.varByName[variable]; ok {
		return v.PrettyName
	}
	return ""
}

// Regions lists selectable regions for the checked geography types,
// in the order the types were supplied.
func (c *Catalog) Regions(geoTypes []domain.GeoType) []domain.Region {
	out := make([]domain.Region, 0)
	for _, g := range geoTypes {
		out = append(out, c.regionByType[g]...)
	}
	return out
}

func (c *Catalog) RegionName(id int) string {
	return c.regionName[id]
}

func (c *Catalog) HasRegion(id int) bool {
	_, ok := c.regionName[id]
	return ok
}

// EndDates returns selectable period end dates for a duration, most
// recent first.
func (c *Catalog) EndDates(duration domain.Duration) []string {
	return append([]string{}, c.endDates[duration]...)
}

// Latest returns the most recent end date for a duration, used as the
// dropdown default.
func (c *Catalog) Latest(duration domain.Duration) (string, bool) {
	dates := c.endDates[duration]
	if len(dates) == 0 {
		return "", false
	}
	return dates[0], true
}

func (c *Catalog) HasPeriodEnd(duration domain.Duration, periodEnd string) bool {
	for _, d := range c.endDates[duration] {
		if d == periodEnd {
			return true
		}
	}
	return false
}

// MapTitle formats the choropleth heading for the current selection.
func (c *Catalog) MapTitle(variable string, duration domain.Duration, geoTypes []domain.GeoType, periodEnd string) string {
	hasCounties, hasMetros := false, false
	for _, g := range geoTypes {
		switch g {
		case domain.GeoTypeCounties:
			hasCounties = true
		case domain.GeoTypeMetros:
			hasMetros = true
		}
	}

	var geoText string
	switch {
	case hasCounties && hasMetros:
		geoText = "Counties and Metro Areas"
	case hasMetros:
		geoText = "Metro Areas"
	case hasCounties:
		geoText = "Counties"
	}

	return fmt.Sprintf("%s for %s. Using a %s smoothing window and period ending %s",
		c.PrettyName(variable), geoText, duration, periodEnd)
}
