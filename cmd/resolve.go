package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/resolve"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <scene.lisp>",
	Short: "Resolve the connectivity of a scene",
	Long: `Evaluate a scene, run the resolution passes and print a per-pass summary.

With --json the pass report and the resolved model are written as one JSON
document instead.

Examples:
  truss resolve frame.lisp
  truss resolve frame.lisp --config truss.yaml --json > resolved.json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "write the report and resolved model as JSON")
}

// resolveOutput is the --json document.
type resolveOutput struct {
	Report resolve.Report `json:"report"`
	Model  graph.Snapshot `json:"model"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	m := scene.Model
	before := m.NodeCount()
	rep, vr, err := resolveScene(cmd.Context(), m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resolveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resolveOutput{Report: rep, Model: m.Snapshot()}); err != nil {
			return errors.Wrap(err, "encode")
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PASS\tMOVED\tMERGED\tNODES")
		for _, p := range rep.Passes {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", p.Name, p.Moved, p.Merge.Merged, p.Merge.Representatives)
		}
		w.Flush()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "frame: %d cycles, %d divisions, %d snaps, %d joints\n",
			rep.Frame.Cycles, rep.Frame.Divisions, rep.Frame.Snaps, rep.Frame.Joints)
		fmt.Fprintf(out, "members: %d  nodes: %d -> %d\n", m.MemberCount(), before, m.NodeCount())
		for _, e := range vr.Errors {
			fmt.Fprintln(out, e.Error())
		}
	}

	if !vr.OK() {
		return errors.Errorf("resolved model has %d validation errors", len(vr.Errors))
	}
	return nil
}
