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
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/diffusion2d/InputParameters"
	"github.com/notargets/diffusion2d/model_problems/Diffusion2D"
	"github.com/notargets/diffusion2d/readfiles"
	"github.com/notargets/diffusion2d/results"
	"github.com/notargets/diffusion2d/solvers"
	"github.com/notargets/diffusion2d/types"
	"github.com/notargets/diffusion2d/utils"
)

// SolveOptions collects everything a solve needs after flags, environment,
// config file and problem deck have been merged.
type SolveOptions struct {
	Title         string
	InputFile     string
	MaterialFile  string
	NX, NY        int
	Method        string
	Omega         float64
	Tolerance     float64
	MaxIterations int
	Storage       string
	Procs         int
	Output        string // "-" writes the flux table to stdout, "" skips it
	Store         string
	Profile       string
	PerfCounters  bool
	DumpSystem    string
	Verbose       bool
}

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Assemble and solve a diffusion problem from a material file or YAML deck",
	Long: `Reads materials from a text material file (-M) or a YAML problem deck (-I),
builds the extrapolated mesh, assembles the finite volume system and solves it
with the chosen stationary iteration. The flux is written as a table in physical
orientation, top row first.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			opts SolveOptions
		)
		if opts, err = resolveOptions(cmd); err != nil {
			return
		}
		_, _, err = RunSolve(opts, logger, os.Stdout)
		return
	},
}

var solveFlags = []string{"inputFile", "materialFile", "nx", "ny", "method", "omega", "tol",
	"maxIter", "storage", "procs", "output", "store", "profile", "perfCounters", "dumpSystem", "title"}

func init() {
	rootCmd.AddCommand(SolveCmd)
	flags := SolveCmd.Flags()
	flags.StringP("inputFile", "I", "", "YAML problem deck with materials and solver settings")
	flags.StringP("materialFile", "M", "", "text material file with \"Material N:\" blocks")
	flags.Int("nx", 30, "number of cells in x")
	flags.Int("ny", 10, "number of cells in y")
	flags.StringP("method", "m", "sor", "iterative method: jacobi, gauss_seidel or sor")
	flags.Float64("omega", solvers.DefaultOmega, "SOR relaxation factor")
	flags.Float64("tol", solvers.DefaultTolerance, "relative update tolerance")
	flags.Int("maxIter", solvers.DefaultMaxIterations, "maximum number of iterations")
	flags.String("storage", "dense", "system storage: dense or sparse")
	flags.Int("procs", 1, "goroutines per Jacobi sweep, 0 for one per CPU")
	flags.StringP("output", "o", "-", "flux table file, \"-\" for stdout, empty to skip")
	flags.String("store", "", "SQLite file to archive the run in")
	flags.String("profile", "", "write a pprof profile of the solve: cpu or mem")
	flags.Bool("perfCounters", false, "report CPU instructions and cycles of the solve (Linux)")
	flags.String("dumpSystem", "", "directory to write A.txt and b.txt into")
	flags.String("title", "", "run title, defaults to the deck title")
	for _, name := range solveFlags {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// resolveOptions layers the deck under explicitly set flags. Environment and
// config values stand in for flags that were not given on the command line.
func resolveOptions(cmd *cobra.Command) (opts SolveOptions, err error) {
	opts = SolveOptions{
		Title:         viper.GetString("title"),
		InputFile:     viper.GetString("inputFile"),
		MaterialFile:  viper.GetString("materialFile"),
		NX:            viper.GetInt("nx"),
		NY:            viper.GetInt("ny"),
		Method:        viper.GetString("method"),
		Omega:         viper.GetFloat64("omega"),
		Tolerance:     viper.GetFloat64("tol"),
		MaxIterations: viper.GetInt("maxIter"),
		Storage:       viper.GetString("storage"),
		Procs:         viper.GetInt("procs"),
		Output:        viper.GetString("output"),
		Store:         viper.GetString("store"),
		Profile:       viper.GetString("profile"),
		PerfCounters:  viper.GetBool("perfCounters"),
		DumpSystem:    viper.GetString("dumpSystem"),
		Verbose:       verbose || viper.GetBool("verbose"),
	}
	if opts.InputFile == "" {
		return
	}
	var ip *InputParameters.InputParameters2D
	if ip, err = readDeck(opts.InputFile); err != nil {
		return
	}
	opts = mergeDeck(opts, ip, cmd.Flags().Changed)
	return
}

func readDeck(path string) (ip *InputParameters.InputParameters2D, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("unable to read input deck: %w", err)
	}
	ip = &InputParameters.InputParameters2D{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("unable to parse input deck %s: %v: %w", path, err, types.ErrInput)
	}
	return
}

// mergeDeck takes each setting the deck supplies unless its flag was given.
// Settings missing from both fall back to the deck defaults.
func mergeDeck(opts SolveOptions, ip *InputParameters.InputParameters2D, changed func(string) bool) SolveOptions {
	if !changed("title") && ip.Title != "" {
		opts.Title = ip.Title
	}
	if !changed("materialFile") && ip.MaterialFile != "" {
		opts.MaterialFile = ip.MaterialFile
	}
	if !changed("nx") && ip.NX != 0 {
		opts.NX = ip.NX
	}
	if !changed("ny") && ip.NY != 0 {
		opts.NY = ip.NY
	}
	if !changed("method") && ip.Method != "" {
		opts.Method = ip.Method
	}
	if !changed("omega") && ip.Omega != 0 {
		opts.Omega = ip.Omega
	}
	if !changed("tol") && ip.Tolerance != 0 {
		opts.Tolerance = ip.Tolerance
	}
	if !changed("maxIter") && ip.MaxIterations != 0 {
		opts.MaxIterations = ip.MaxIterations
	}
	if !changed("storage") && ip.Storage != "" {
		opts.Storage = ip.Storage
	}
	solver := InputParameters.InputParameters2D{Method: opts.Method, Omega: opts.Omega,
		Tolerance: opts.Tolerance, MaxIterations: opts.MaxIterations, Storage: opts.Storage}
	solver.SetDefaults()
	opts.Method, opts.Omega, opts.Tolerance = solver.Method, solver.Omega, solver.Tolerance
	opts.MaxIterations, opts.Storage = solver.MaxIterations, solver.Storage
	return opts
}

func loadMaterials(opts SolveOptions) (materials []types.MaterialSpec, err error) {
	if opts.InputFile != "" {
		var ip *InputParameters.InputParameters2D
		if ip, err = readDeck(opts.InputFile); err != nil {
			return
		}
		if len(ip.Materials) != 0 {
			return ip.ToMaterials()
		}
	}
	if opts.MaterialFile == "" {
		return nil, fmt.Errorf("no materials: supply a material file (-M, --materialFile) or a deck with Materials: %w",
			types.ErrInput)
	}
	return readfiles.ReadMaterials(opts.MaterialFile, opts.Verbose)
}

// RunSolve builds and solves one problem. The returned run ID is empty unless
// the run was archived.
func RunSolve(opts SolveOptions, logger *zap.Logger, out io.Writer) (c *Diffusion2D.Diffusion, runID string, err error) {
	var (
		materials []types.MaterialSpec
		method    solvers.Method
		storage   utils.StorageType
		res       solvers.Result
		profiler  func(*profile.Profile)
	)
	if method, err = solvers.NewMethod(opts.Method); err != nil {
		return
	}
	if storage, err = utils.NewStorageType(opts.Storage); err != nil {
		return
	}
	switch opts.Profile {
	case "":
	case "cpu":
		profiler = profile.CPUProfile
	case "mem":
		profiler = profile.MemProfile
	default:
		return nil, "", fmt.Errorf("unknown profile type %q, use cpu or mem: %w", opts.Profile, types.ErrInput)
	}
	if materials, err = loadMaterials(opts); err != nil {
		return
	}
	if c, err = Diffusion2D.NewDiffusion(opts.NX, opts.NY, materials, storage, logger); err != nil {
		return
	}
	if opts.Verbose {
		for _, m := range materials {
			m.Print()
		}
		c.Mesh.Print()
	}
	if opts.DumpSystem != "" {
		if err = c.System.DumpSystem(opts.DumpSystem); err != nil {
			return
		}
		logger.Info("system written", zap.String("dir", opts.DumpSystem))
	}

	solve := func() (err error) {
		res, err = c.Solve(method, opts.Omega,
			solvers.WithTolerance(opts.Tolerance),
			solvers.WithMaxIterations(opts.MaxIterations),
			solvers.WithParallelDegree(opts.Procs))
		return
	}
	start := time.Now()
	if profiler != nil {
		defer profile.Start(profiler, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}
	if opts.PerfCounters {
		err = withPerfCounters(logger, solve)
	} else {
		err = solve()
	}
	if err != nil {
		return
	}
	logger.Info("solve finished",
		zap.String("method", method.Print()),
		zap.Int("iterations", res.Iterations),
		zap.Bool("converged", res.Converged),
		zap.Float64("change", res.Change),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("blas", utils.BLASImplementation),
		zap.String("memory", utils.GetMemUsage()))

	if err = writeFlux(c, opts.Output, out); err != nil {
		return
	}
	if opts.Store != "" {
		if runID, err = archive(c, opts); err != nil {
			return
		}
		logger.Info("run archived", zap.String("id", runID), zap.String("store", opts.Store))
	}
	return
}

func writeFlux(c *Diffusion2D.Diffusion, output string, out io.Writer) (err error) {
	switch output {
	case "":
		return
	case "-":
		return c.WriteFlux(out)
	}
	var f *os.File
	if f, err = os.Create(output); err != nil {
		return
	}
	defer f.Close()
	return c.WriteFlux(f)
}

func archive(c *Diffusion2D.Diffusion, opts SolveOptions) (id string, err error) {
	var st *results.Store
	if st, err = results.Open(opts.Store); err != nil {
		return
	}
	defer st.Close()
	return st.Save(&results.Run{
		Title:      opts.Title,
		Method:     c.Result.Method.Print(),
		Omega:      opts.Omega,
		Tolerance:  opts.Tolerance,
		Iterations: c.Result.Iterations,
		Converged:  c.Result.Converged,
		Change:     c.Result.Change,
		NX:         c.Mesh.NX,
		NY:         c.Mesh.NY,
		DX:         c.Mesh.DX,
		DY:         c.Mesh.DY,
		Flux:       utils.VecGetF64(c.Result.X),
	})
}
