package gemini

import "time"

// Config for the Vertex AI Gemini client.
type Config struct {
	ProjectID        string
	Location         string        // default us-central1
	Model            string        // default gemini-2.5-flash
	DraftTemperature float32       // used as given, 0 is deterministic
	Timeout          time.Duration // per call, 0 = caller's context only
}

func (c *Config) setDefaults() {
	if c.Location == "" {
		c.Location = "us-central1"
	}
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
}
