package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpiant/pos-kasir/internal/printer"
	"go.uber.org/zap"
)

// printerGroups are the groups that own serial and lp device nodes on Linux.
var printerGroups = []string{"lp", "dialout"}

// GroupCheck warns when the user cannot open printer devices. It never
// contributes destinations.
type GroupCheck struct {
	Runner printer.Runner
	User   string
	Logger *zap.Logger
}

func (g *GroupCheck) Name() string { return "groups" }

func (g *GroupCheck) List(ctx context.Context) ([]printer.Destination, error) {
	if g.User == "" {
		return nil, nil
	}
	missing, err := g.Missing(ctx)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 && g.Logger != nil {
		g.Logger.Warn(fmt.Sprintf("User '%s' tidak di group: %s. Run: sudo usermod -aG %s $USER",
			g.User, strings.Join(missing, ", "), strings.Join(missing, ",")),
			zap.Strings("missing_groups", missing))
	}
	return nil, nil
}

// Missing returns the printer groups User does not belong to.
func (g *GroupCheck) Missing(ctx context.Context) ([]string, error) {
	res, err := g.Runner.Run(ctx, "groups", g.User)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, fmt.Errorf("groups %s: exit status %d", g.User, res.ExitCode)
	}
	return missingGroups(string(res.Stdout)), nil
}

// missingGroups parses "user : a b c" or "a b c".
func missingGroups(out string) []string {
	if _, after, ok := strings.Cut(out, ":"); ok {
		out = after
	}
	member := make(map[string]bool)
	for _, g := range strings.Fields(out) {
		member[g] = true
	}

	var missing []string
	for _, g := range printerGroups {
		if !member[g] {
			missing = append(missing, g)
		}
	}
	return missing
}
