package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/attendance/internal/adapters/report"
	app "github.com/okian/attendance/internal/app"
	"github.com/okian/attendance/internal/config"
	"github.com/okian/attendance/internal/domain/types"
	"github.com/okian/attendance/pkg/logger"
)

const (
	stdinName      = "-"
	filePermission = 0o600
	dirPermission  = 0o750
)

var errNoInput = errors.New("no input file; use -f <file> or -f - for stdin")

type evaluateOptions struct {
	file      string
	threshold int
	xlsxPath  string
	noColor   bool
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate subjects from a YAML or JSON file and print a table",
		Example: `  attendctl evaluate -f subjects.yaml
  attendctl evaluate -f subjects.json --threshold 80 --xlsx report.xlsx
  cat subjects.json | attendctl evaluate -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "input file with {threshold, subjects}; - reads stdin")
	cmd.Flags().IntVar(&opts.threshold, "threshold", 0, "required attendance percentage (overrides the file)")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "also write the evaluation to this workbook")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable coloured status output")

	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	ctx := cmd.Context()
	if opts.file == "" {
		return errNoInput
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString("warn"); err != nil {
		return err
	}

	payload, err := readPayload(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}
	in, err := payload.Input()
	if err != nil {
		return fmt.Errorf("invalid %s: %w", opts.file, err)
	}
	if cmd.Flags().Changed("threshold") {
		in.Threshold = &opts.threshold
	}

	svc := app.New(
		app.WithDefaultThreshold(cfg.DefaultThreshold),
		app.WithMaxSubjects(cfg.MaxSubjects),
	)
	ev, err := svc.Calculate(ctx, in)
	if err != nil {
		return err
	}

	if err := report.WriteTable(cmd.OutOrStdout(), ev, report.TableOptions{Color: !opts.noColor}); err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, ev); err != nil {
			return err
		}
		if dir := filepath.Dir(opts.xlsxPath); dir != "." {
			if err := os.MkdirAll(dir, dirPermission); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		if err := os.WriteFile(opts.xlsxPath, buf.Bytes(), filePermission); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.xlsxPath)
	}
	return nil
}

// readPayload decodes a YAML document; JSON input is accepted as YAML.
func readPayload(stdin io.Reader, name string) (types.Payload, error) {
	var r io.Reader
	if name == stdinName {
		r = stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return types.Payload{}, fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p types.Payload
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return types.Payload{}, fmt.Errorf("failed to parse %s: empty input", name)
		}
		return types.Payload{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return p, nil
}
