package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/codec"
)

// Migrate upgrades a quiz document to the current schema. The result is
// written back to path when inPlace is set, otherwise to w.
func Migrate(w io.Writer, path string, inPlace bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	format := codec.FormatFromPath(path)
	g, rep, err := codec.Decode(data, format)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	out, err := codec.Encode(g, format)
	if err != nil {
		return err
	}

	if !inPlace {
		_, err = w.Write(out)
		return err
	}
	if !rep.Changed() {
		printSystemMessage(w, "%s is already at the current schema.", path)
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return err
	}
	printSystemMessage(w, "%s: upgraded %d nodes, rewired %d edges.", path, rep.NodesUpgraded, rep.EdgesRewired)
	return nil
}
