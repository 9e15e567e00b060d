// Package backup implements the database-backup step the Plan Assembler
// attaches ahead of the control-plane upgrade group, unless the operator
// passes --no-backup. It is a thin adapter over the controller's
// mysqldump action and scp_from_unit, not a reimplementation of the
// mysql-innodb-cluster backup tooling itself.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/step"
)

// manifest records what a backup run retrieved, written as a YAML sidecar
// next to the dump itself so an operator can tell which run produced it
// without re-deriving it from the dump's own contents.
type manifest struct {
	Application string    `yaml:"application"`
	Unit        string    `yaml:"unit"`
	RemoteFile  string    `yaml:"remote-file"`
	LocalFile   string    `yaml:"local-file"`
	TakenAt     time.Time `yaml:"taken-at"`
}

// databaseCharms lists the charms this tool knows how to back up, tried in
// order; the first one present in the model wins.
var databaseCharms = []string{"mysql-innodb-cluster", "percona-cluster"}

// FindDatabaseApp returns the name of the deployed database application to
// back up, or UnitNotFoundError if none of databaseCharms is present.
func FindDatabaseApp(apps map[string]juju.Application) (string, error) {
	for _, charm := range databaseCharms {
		var names []string
		for name, app := range apps {
			if app.Charm == charm {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			sort.Strings(names)
			return names[0], nil
		}
	}
	return "", couerrors.NewUnitNotFound("<database charm>")
}

// Step builds the "Backup databases" leaf: mysqldump on the database
// application's first unit, a permission window around it, then scp_from_
// unit to destDir. Ports cou/steps/backup.py::backup.
func Step(ctrl juju.Controller, apps map[string]juju.Application, destDir string) (*step.Step, error) {
	dbApp, err := FindDatabaseApp(apps)
	if err != nil {
		return nil, err
	}
	units := apps[dbApp].Units
	if len(units) == 0 {
		return nil, couerrors.NewUnitNotFound(dbApp)
	}
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)
	unitName := names[0]

	return step.NewLeaf(
		fmt.Sprintf("Back up the %q database on unit %q", dbApp, unitName),
		step.CategoryPreUpgrade,
		func(ctx context.Context) error {
			return run(ctx, ctrl, dbApp, unitName, destDir)
		},
	), nil
}

func run(ctx context.Context, ctrl juju.Controller, dbApp, unitName, destDir string) error {
	action, err := ctrl.RunAction(ctx, unitName, "mysqldump", nil, true)
	if err != nil {
		return err
	}
	remoteFile, ok := action.Results["mysqldump-file"]
	if !ok || remoteFile == "" {
		return couerrors.NewApplicationError(unitName, "mysqldump action returned no mysqldump-file result")
	}
	basedir := filepath.Dir(remoteFile)

	if _, err := ctrl.RunOnUnit(ctx, unitName, fmt.Sprintf("chmod o+rx %s", basedir), 0); err != nil {
		return err
	}
	defer ctrl.RunOnUnit(ctx, unitName, fmt.Sprintf("chmod o-rx %s", basedir), 0) //nolint:errcheck

	localFile := filepath.Join(destDir, filepath.Base(remoteFile))
	if err := ctrl.ScpFromUnit(ctx, unitName, remoteFile, localFile); err != nil {
		return err
	}
	return writeManifest(destDir, manifest{
		Application: dbApp,
		Unit:        unitName,
		RemoteFile:  remoteFile,
		LocalFile:   localFile,
		TakenAt:     time.Now(),
	})
}

// writeManifest marshals m next to the backup files it describes, as
// <localFile base>.manifest.yaml.
func writeManifest(destDir string, m manifest) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	path := filepath.Join(destDir, filepath.Base(m.LocalFile)+".manifest.yaml")
	return os.WriteFile(path, b, 0o600)
}
