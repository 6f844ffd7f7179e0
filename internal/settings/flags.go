package settings

import (
	"flag"
	"strings"
)

// FlagName returns the command-line flag for k: section and name joined,
// lower-cased, with spaces replaced by dashes ("Alpaca", "API key" becomes
// "alpaca-api-key").
func FlagName(k Key) string {
	s := strings.ToLower(k.Section + " " + k.Name)
	return strings.Join(strings.Fields(s), "-")
}

// BindFlags registers one string flag per key of every section on fs. The
// returned function, called after fs.Parse, yields a Map holding only the
// flags that were set on the command line.
func BindFlags(fs *flag.FlagSet, sections ...Section) func() Map {
	byFlag := make(map[string]Key)
	for _, sec := range sections {
		for _, k := range Keys(sec) {
			name := FlagName(k)
			if _, dup := byFlag[name]; dup {
				continue
			}
			byFlag[name] = k
			fs.String(name, "", k.Section+": "+k.Name)
		}
	}

	return func() Map {
		out := make(Map)
		fs.Visit(func(f *flag.Flag) {
			if k, ok := byFlag[f.Name]; ok {
				out[k] = f.Value.String()
			}
		})
		return out
	}
}
