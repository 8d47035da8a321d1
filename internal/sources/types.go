package sources

// Kind selects the platform a source is scraped from.
type Kind string

const (
	KindSlack  Kind = "slack"
	KindGitLab Kind = "gitlab"
)

// Source is one scrape target definition.
type Source struct {
	Name        string `yaml:"name"`
	Kind        Kind   `yaml:"kind"`
	Channel     string `yaml:"channel_id"`
	Project     string `yaml:"project"`
	AllMessages bool   `yaml:"all_messages"`
	Enabled     bool   `yaml:"enabled"`
}

// Target returns the platform identifier the scrape operates on, which
// doubles as the checkpoint key.
func (s *Source) Target() string {
	if s.Kind == KindGitLab {
		return s.Project
	}
	return s.Channel
}
