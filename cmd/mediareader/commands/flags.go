package commands

import (
	"github.com/spf13/pflag"
)

// overrideFlag stores the value of the flag into dst only if the flag was
// set explicitly, so that values from the config file survive otherwise.
func overrideFlag[T any](
	flags *pflag.FlagSet,
	name string,
	get func(string) (T, error),
	dst *T,
) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
