package seed

// Config is the top-level structure of a resource seed file. Groups use
// dynamic keys, so it is parsed as []map[group][]map[name]Props.
//
//	- Support:
//	    - Trans Lifeline:
//	        href: https://translifeline.org
//	        description: Peer support hotline
//	        tags: [crisis, hotline]
type Config []map[string][]map[string]Props

// Props holds the properties of one seeded resource
type Props struct {
	Href        string   `yaml:"href"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}
