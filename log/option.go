package log

// Option changes one setting of a [Logger]. Options are applied in order to
// a copy of the settings, so a later option overrides an earlier one.
type Option func(config) config

func apply(c config, opts ...Option) config {
	for _, o := range opts {
		c = o(c)
	}

	return c
}
