package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <scene.lisp>",
	Short: "Classify the mesh members and surfaces of a scene",
	Long: `Evaluate a scene and print, for every mesh-member form, the section it
was extruded from next to the preset and profile recovered from the mesh.
Mesh-surface forms list the outline and thickness given and recovered.

Example:
  truss classify sections.lisp`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(scene.Meshes) == 0 && len(scene.Surfaces) == 0 {
		fmt.Fprintln(out, "no mesh members")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tINPUT\tPRESET\tPROFILE")
	for _, mm := range scene.Meshes {
		got := "-"
		if mm.OK {
			got = mm.Profile.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mm.Name, mm.Kind, mm.Input, mm.Preset, got)
	}
	for _, ms := range scene.Surfaces {
		got := "-"
		if ms.OK {
			got = fmt.Sprintf("%d corners t=%g", len(ms.Outline), ms.Thickness)
		}
		fmt.Fprintf(w, "%s\t%s\t%d corners t=%g\t-\t%s\n", ms.Name, ms.Kind, ms.Corners, ms.Input, got)
	}
	return w.Flush()
}
