package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/truss/pkg/kernel"
	"github.com/chazu/truss/pkg/kernel/sdfx"
	"github.com/chazu/truss/pkg/tessellate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	meshOutput string
	meshRaw    bool
)

var meshCmd = &cobra.Command{
	Use:   "mesh <scene.lisp>",
	Short: "Write one triangle mesh per member as JSON",
	Long: `Evaluate and resolve a scene, then mesh every member with marching cubes
at mesh.cells resolution and write the meshes as a JSON array.

Examples:
  truss mesh frame.lisp -o frame.json
  truss mesh frame.lisp --raw -o unresolved.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMesh,
}

func init() {
	rootCmd.AddCommand(meshCmd)
	meshCmd.Flags().StringVarP(&meshOutput, "output", "o", "", "output file (default: stdout)")
	meshCmd.Flags().BoolVar(&meshRaw, "raw", false, "skip resolution")
}

func runMesh(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	m := scene.Model
	if !meshRaw {
		if _, _, err := resolveScene(cmd.Context(), m); err != nil {
			return err
		}
	}
	meshes, err := tessellate.Tessellate(m, sdfx.NewWithCells(cfg.Mesh.Cells))
	if err != nil {
		return err
	}
	if meshes == nil {
		meshes = []*kernel.Mesh{}
	}

	data, err := json.Marshal(meshes)
	if err != nil {
		return errors.Wrap(err, "encode meshes")
	}
	if meshOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(meshOutput, data, 0o644); err != nil {
		return errors.Wrap(err, "write meshes")
	}
	log.Info().Str("file", meshOutput).Int("meshes", len(meshes)).Msg("meshes written")
	return nil
}
