// Package main runs a clash query described by a YAML file and exports the
// resulting report as JSON, HTML, or rows in a SQLite archive.
package main

import (
	"context"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"github.com/spatialsuite/clashcore/detection"
	"github.com/spatialsuite/clashcore/report"
	"github.com/spatialsuite/clashcore/scene"
)

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

var logger = golog.NewDevelopmentLogger("clashdetect")

// Arguments for the command.
type Arguments struct {
	QueryFile string `flag:"0,required,usage=path to query YAML file"`
	JSONOut   string `flag:"json,usage=write the report as JSON to this file"`
	HTMLOut   string `flag:"html,usage=write the report as a standalone HTML page to this file"`
	Archive   string `flag:"db,usage=append the report to this SQLite archive"`
	Workers   int    `flag:"workers,default=0,usage=narrow-phase worker count (0 means one per CPU)"`
}

// queryFile is the on-disk shape of a query: the scene to test and the
// detection settings to test it with.
type queryFile struct {
	Stage     scene.StageConfig `yaml:"stage"`
	Detection detection.Config  `yaml:"detection"`
}

func loadQueryFile(path string) (*queryFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open query file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var qf queryFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&qf); err != nil {
		return nil, errors.Wrapf(err, "cannot parse query file %q", path)
	}
	return &qf, nil
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	qf, err := loadQueryFile(argsParsed.QueryFile)
	if err != nil {
		return err
	}
	stage, err := qf.Stage.Build()
	if err != nil {
		return errors.Wrap(err, "cannot build stage")
	}

	detector, err := detection.NewDetector(stage, &qf.Detection, logger,
		detection.WithWorkers(argsParsed.Workers))
	if err != nil {
		return err
	}
	doc, err := detector.Run(ctx)
	if err != nil {
		return err
	}

	return exportDocument(doc, argsParsed)
}

func exportDocument(doc *report.Document, args Arguments) (err error) {
	exported := false
	if args.JSONOut != "" {
		if err := report.ExportJSONFile(doc, args.JSONOut); err != nil {
			return err
		}
		logger.Infof("wrote JSON report to %s", args.JSONOut)
		exported = true
	}
	if args.HTMLOut != "" {
		if err := report.ExportHTMLFile(doc, args.HTMLOut); err != nil {
			return err
		}
		logger.Infof("wrote HTML report to %s", args.HTMLOut)
		exported = true
	}
	if args.Archive != "" {
		store, err := report.OpenStore(args.Archive)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Combine(err, store.Close())
		}()
		if err := store.SaveDocument(doc); err != nil {
			return err
		}
		logger.Infof("saved query %s to %s", doc.QueryID, args.Archive)
		exported = true
	}
	if !exported {
		return report.ExportJSON(doc, os.Stdout)
	}
	return nil
}
