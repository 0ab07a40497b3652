// Package config loads, normalizes and validates reelgen configuration.
//
// Settings come from three layers applied in order: repository defaults,
// an optional TOML file (reelgen.toml in the working directory unless a path
// is given) and environment overrides such as RENDER_ENGINE_EXECUTABLE or
// DATABASE_URL. Binaries load a .env file before calling Load so the same
// overrides can live next to the deployment.
//
// The render engine location and every static asset path are configuration
// inputs; nothing in the generation core hard-codes them.
package config
