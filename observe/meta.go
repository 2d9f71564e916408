package observe

// ProviderMeta identifies one check of one provider for telemetry.
type ProviderMeta struct {
	// Provider is the provider identifier (required).
	Provider string

	// Trigger is what started the check, e.g. "manual" or "automatic".
	Trigger string

	// ProbeID correlates the logs and span of a single probe.
	ProbeID string
}

// SpanName returns the deterministic span name for a probe of this
// provider: provider.probe.<provider>.
func (m ProviderMeta) SpanName() string {
	return "provider.probe." + m.Provider
}

// Validate reports whether the metadata is usable.
func (m ProviderMeta) Validate() error {
	if m.Provider == "" {
		return ErrMissingProvider
	}
	return nil
}
