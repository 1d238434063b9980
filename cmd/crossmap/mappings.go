package main

import (
	"errors"

	"github.com/spf13/cobra"

	"crossmap/internal/defstore"
	"crossmap/internal/mapping"
)

var errMissingSet = errors.New("--set is required")

func newMappingsCmd(a *app) *cobra.Command {
	var set, file string

	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Save, load and list mapping definition sets",
	}

	cmd.PersistentFlags().StringVar(&set, "set", "", "definition set name")

	openStore := func(cmd *cobra.Command) (*defstore.Store, error) {
		return defstore.Open(cmd.Context(), a.cfg.Store.Path, a.log)
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Store the definitions of a YAML mapping file under --set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := mapping.LoadFile(file)
			if err != nil {
				return err
			}

			if diags := mapping.Validate(f.Definitions, nil); diags.HasErrors() {
				return diags.Error()
			}

			ds, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			return ds.Save(cmd.Context(), set, f.Definitions)
		},
	}
	save.Flags().StringVar(&file, "file", "", "YAML mapping file")
	_ = save.MarkFlagRequired("file")

	load := &cobra.Command{
		Use:   "load",
		Short: "Print a saved set as a YAML mapping file, or write it with --file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			defs, err := ds.Load(cmd.Context(), set)
			if err != nil {
				return err
			}

			f := &mapping.File{Version: "1", Name: set, Definitions: defs}
			if file != "" {
				return mapping.WriteFile(f, file)
			}

			data, err := mapping.Marshal(f)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
	load.Flags().StringVar(&file, "file", "", "write to this file instead of stdout")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved sets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			sets, err := ds.List(cmd.Context())
			if err != nil {
				return err
			}

			if sets == nil {
				sets = []defstore.SetInfo{}
			}

			return writeJSON(cmd.OutOrStdout(), sets)
		},
	}

	remove := &cobra.Command{
		Use:   "delete",
		Short: "Delete a saved set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()

			return ds.Delete(cmd.Context(), set)
		},
	}

	for _, c := range []*cobra.Command{save, load, remove} {
		c.PreRunE = func(*cobra.Command, []string) error {
			if set == "" {
				return errMissingSet
			}

			return nil
		}
	}

	cmd.AddCommand(save, load, list, remove)

	return cmd
}
