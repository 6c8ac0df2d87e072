package config

const (
	EnvModelsDefault = "HARMONY_MODEL_DEFAULT"
	EnvModelsFile    = "HARMONY_MODELS_FILE"
)

// ModelsConfig selects the default model alias and an optional YAML file
// extending the built-in alias table.
type ModelsConfig struct {
	Default string `toml:"default"`
	File    string `toml:"file"`
}

// Finalize applies environment variable overrides. Alias validity is
// checked when the registry is built.
func (c *ModelsConfig) Finalize() error {
	envString(&c.Default, EnvModelsDefault)
	envString(&c.File, EnvModelsFile)
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *ModelsConfig) Merge(overlay *ModelsConfig) {
	mergeString(&c.Default, overlay.Default)
	mergeString(&c.File, overlay.File)
}
