/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/diffusion2d/results"
)

// RunsCmd lists the runs archived with solve --store
var RunsCmd = &cobra.Command{
	Use:   "runs <store>",
	Short: "List archived runs, or print the flux of one run with --id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, _ := cmd.Flags().GetString("id")
		return ListRuns(args[0], id, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(RunsCmd)
	RunsCmd.Flags().String("id", "", "print the flux vector of this run")
}

func ListRuns(store, id string, w io.Writer) (err error) {
	var st *results.Store
	if st, err = results.Open(store); err != nil {
		return
	}
	defer st.Close()
	if id != "" {
		var run *results.Run
		if run, err = st.Load(id); err != nil {
			return
		}
		fmt.Fprintf(w, "# %s %q %s, NX = %d, NY = %d, dx = %.8g, dy = %.8g\n",
			run.ID, run.Title, run.Method, run.NX, run.NY, run.DX, run.DY)
		for _, v := range run.Flux {
			fmt.Fprintf(w, "%.17g\n", v)
		}
		return
	}
	var runs []*results.Run
	if runs, err = st.List(); err != nil {
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %-20q %-12s %5d iterations  converged = %t\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Title, run.Method, run.Iterations, run.Converged)
	}
	return
}
