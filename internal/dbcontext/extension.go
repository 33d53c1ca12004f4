package dbcontext

import "time"

// Extension is a typed configuration block attached to an OptionsBuilder.
type Extension interface {
	ExtensionName() string
}

// FactoryExtensionName is the name FactoryExtension is registered under.
const FactoryExtensionName = "dbfactory"

// FactoryExtension carries optional per-application overrides that a dialect factory
// applies when it configures an execution context. Unset fields keep the driver defaults.
type FactoryExtension struct {
	CommandTimeout         *time.Duration
	MinBatchSize           *int
	MaxBatchSize           *int
	QuerySplittingBehavior *QuerySplittingBehavior
	UseRelationalNulls     *bool
}

func (e *FactoryExtension) ExtensionName() string { return FactoryExtensionName }

// FindExtension returns the first extension of type E attached to o.
func FindExtension[E Extension](o *Options) (E, bool) {
	for _, ext := range o.extensions {
		if e, ok := ext.(E); ok {
			return e, true
		}
	}
	var zero E
	return zero, false
}
