package cfgloader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rise-and-shine/thumbnails/mask"
)

func printConfig(config any) {
	slog.Info("Loaded config:\n" + render(config))
}

// render lists the flattened config one key per line with sensitive values masked.
func render(config any) string {
	var b strings.Builder
	for pair := mask.Flatten(config).Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&b, "  %s: %v\n", pair.Key, pair.Value)
	}
	return b.String()
}
