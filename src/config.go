package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	Optional YAML configuration file.
 *
 * Description:	Everything in here can also be given on the command
 *		line; flags win.  With no --config we look in the
 *		usual places and silently carry on when nothing is
 *		found.
 *
 *		Example qmid.yaml:
 *
 *			device: /dev/cdc-wdm0
 *			pin: "1234"
 *			verbose: 2
 *			session_log: /var/log/qmid.csv
 *
 *---------------------------------------------------------------*/

import (
	"os"

	"gopkg.in/yaml.v3"
)

type qmid_config struct {
	Device     string `yaml:"device"`
	Pin        string `yaml:"pin"`
	Verbose    int    `yaml:"verbose"`
	SessionLog string `yaml:"session_log"`
}

var config_search_locations = []string{
	"qmid.yaml", // Current working directory
	"/etc/qmid.yaml",
}

/*
 * An explicitly named file that is missing or broken is worth a
 * complaint; a missing default location is not.
 */

func config_load(path string) *qmid_config {
	var config = &qmid_config{}

	var locations = config_search_locations
	if path != "" {
		locations = []string{path}
	}

	for _, location := range locations {
		var data, err = os.ReadFile(location)
		if err != nil {
			if path != "" {
				qmid_log.Error("Could not read config file", "path", location, "err", err)
			}
			continue
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			qmid_log.Error("Could not parse config file", "path", location, "err", err)
			break
		}

		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("Loaded config", "path", location)
		}
		break
	}

	return config
}
