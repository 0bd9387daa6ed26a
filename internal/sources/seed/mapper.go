package seed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

// Mapper converts seed config to domain resources
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapResources converts a seed Config to resources. The group name is added
// as a lowercase tag. Entries are returned in file order; names inside one
// list item are sorted.
func (m *Mapper) MapResources(config Config) ([]domain.Resource, error) {
	var resources []domain.Resource

	for _, groupMap := range config {
		for _, group := range sortedKeys(groupMap) {
			for _, entryMap := range groupMap[group] {
				for _, name := range sortedKeys(entryMap) {
					props := entryMap[name]
					if strings.TrimSpace(name) == "" {
						continue
					}

					tags := append([]string{strings.ToLower(group)}, props.Tags...)
					resources = append(resources, domain.NewResource(name, props.Href, props.Description, tags))
				}
			}
		}
	}

	if len(resources) == 0 {
		return nil, fmt.Errorf("no valid resources found in seed config")
	}

	return resources, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
