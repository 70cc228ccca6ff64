package registry

// EndpointConfig is a named embedding endpoint profile.
type EndpointConfig struct {
	ID        string   `json:"id" yaml:"id"` // e.g. "openai:text-embedding-3-small"
	BaseURL   string   `json:"base_url" yaml:"base_url"`
	APIKeyEnv string   `json:"api_key_env" yaml:"api_key_env"`
	Model     string   `json:"model" yaml:"model"`
	Encoding  string   `json:"encoding,omitempty" yaml:"encoding,omitempty"` // tiktoken encoding name
	Gas       int      `json:"gas,omitempty" yaml:"gas,omitempty"`
	BatchSize int      `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Registry is the set of configured endpoint profiles.
type Registry struct {
	Endpoints []EndpointConfig `json:"endpoints" yaml:"endpoints"`
}

// GetEndpointByID returns an endpoint profile by ID.
func (r *Registry) GetEndpointByID(id string) *EndpointConfig {
	for _, ep := range r.Endpoints {
		if ep.ID == id {
			return &ep
		}
	}
	return nil
}

// GetEndpointsByTag returns all endpoint profiles carrying a tag.
func (r *Registry) GetEndpointsByTag(tag string) []EndpointConfig {
	var endpoints []EndpointConfig
	for _, ep := range r.Endpoints {
		for _, t := range ep.Tags {
			if t == tag {
				endpoints = append(endpoints, ep)
				break
			}
		}
	}
	return endpoints
}
